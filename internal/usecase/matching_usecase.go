package usecase

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/samber/lo"

	"github.com/eslsoft/parla/internal/entity"
	"github.com/eslsoft/parla/internal/repository"
)

// Mode-data keys describing the issued puzzle. The check step validates
// submissions against these so a tampered or replayed pair cannot score.
const (
	modeKeyPairCount  = "pair_count"
	modeKeyPhraseIDs  = "phrase_ids"
	modeKeyLeftOrder  = "left_order"
	modeKeyRightOrder = "right_order"
)

// MatchingUsecase builds matching puzzles and scores submitted pairs.
type MatchingUsecase interface {
	Start(ctx context.Context, userID int64, pairCount int) (*entity.MatchingRound, error)
	Check(ctx context.Context, userID, sessionID int64, matches []entity.MatchSubmission) (*entity.MatchingResult, error)
}

// NewMatchingUsecase wires the phrase catalog and the session tracker.
func NewMatchingUsecase(sessions SessionUsecase, catalog repository.PhraseCatalog) MatchingUsecase {
	return &matchingUsecase{
		sessions: sessions,
		catalog:  catalog,
	}
}

type matchingUsecase struct {
	sessions SessionUsecase
	catalog  repository.PhraseCatalog
}

func (u *matchingUsecase) Start(ctx context.Context, userID int64, pairCount int) (*entity.MatchingRound, error) {
	if pairCount <= 0 {
		return nil, entity.ErrInvalidPairCount
	}

	phrases, err := u.choosePhrases(ctx, userID, pairCount)
	if err != nil {
		return nil, err
	}
	if len(phrases) == 0 {
		return nil, entity.ErrPhraseNotFound
	}

	left := lo.Map(phrases, func(p *entity.Phrase, _ int) entity.MatchingCard {
		return entity.MatchingCard{PhraseID: p.ID, Text: p.OriginalText}
	})
	right := lo.Shuffle(lo.Map(phrases, func(p *entity.Phrase, _ int) entity.MatchingCard {
		return entity.MatchingCard{PhraseID: p.ID, Text: p.TranslatedText}
	}))

	cardIDs := func(cards []entity.MatchingCard) []int64 {
		return lo.Map(cards, func(c entity.MatchingCard, _ int) int64 { return c.PhraseID })
	}
	modeData := map[string]any{
		modeKeyPairCount:  len(phrases),
		modeKeyPhraseIDs:  cardIDs(left),
		modeKeyLeftOrder:  cardIDs(left),
		modeKeyRightOrder: cardIDs(right),
	}

	session, err := u.sessions.Start(ctx, userID, string(entity.SessionMatching), modeData)
	if err != nil {
		return nil, err
	}

	return &entity.MatchingRound{Session: session, Left: left, Right: right}, nil
}

func (u *matchingUsecase) Check(ctx context.Context, userID, sessionID int64, matches []entity.MatchSubmission) (*entity.MatchingResult, error) {
	session, err := u.sessions.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Type != entity.SessionMatching {
		return nil, entity.ErrSessionTypeMismatch
	}
	if session.Completed {
		return nil, entity.ErrSessionCompleted
	}

	issued := issuedPhraseSet(session.ModeData)

	result := &entity.MatchingResult{Session: session}
	for _, match := range matches {
		verdict := entity.MatchVerdict{LeftID: match.LeftID, RightID: match.RightID}

		if !issued[match.LeftID] || !issued[match.RightID] {
			// Unresolvable pair: report and keep going with the batch.
			verdict.Error = entity.ErrPhraseNotFound.Error()
			result.Verdicts = append(result.Verdicts, verdict)
			continue
		}

		verdict.Correct = match.LeftID == match.RightID
		_, updated, awarded, err := u.sessions.RecordMatch(ctx, userID, sessionID, match.LeftID, verdict.Correct)
		if err != nil {
			return nil, fmt.Errorf("record matched pair: %w", err)
		}
		result.Session = updated
		result.CheckedPairs++
		if verdict.Correct {
			result.CorrectPairs++
		}
		result.PointsAwarded += awarded
		result.Verdicts = append(result.Verdicts, verdict)
	}

	return result, nil
}

// choosePhrases prefers distinct phrases from the user's own pool; when the
// pool is too small it falls back to sampling the global catalog with
// replacement.
func (u *matchingUsecase) choosePhrases(ctx context.Context, userID int64, pairCount int) ([]*entity.Phrase, error) {
	own, err := u.catalog.SampleForUser(ctx, userID, pairCount)
	if err != nil {
		return nil, fmt.Errorf("sample user phrases: %w", err)
	}
	if len(own) >= pairCount {
		return own[:pairCount], nil
	}

	global, err := u.catalog.SampleGlobal(ctx, pairCount)
	if err != nil {
		return nil, fmt.Errorf("sample global phrases: %w", err)
	}
	if len(global) == 0 {
		return nil, nil
	}

	k := min(pairCount, len(global))
	chosen := make([]*entity.Phrase, 0, k)
	for i := 0; i < k; i++ {
		chosen = append(chosen, global[rand.Intn(len(global))])
	}
	return chosen, nil
}

func issuedPhraseSet(modeData map[string]any) map[int64]bool {
	issued := make(map[int64]bool)
	raw, ok := modeData[modeKeyPhraseIDs]
	if !ok {
		return issued
	}
	switch ids := raw.(type) {
	case []int64:
		for _, id := range ids {
			issued[id] = true
		}
	case []any:
		// JSON round-trips numbers as float64.
		for _, v := range ids {
			switch n := v.(type) {
			case float64:
				issued[int64(n)] = true
			case int64:
				issued[n] = true
			}
		}
	}
	return issued
}
