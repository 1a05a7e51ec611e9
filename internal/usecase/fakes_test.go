package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/eslsoft/parla/internal/entity"
	"github.com/eslsoft/parla/internal/repository"
)

// In-memory repository fakes shared by the usecase tests.

type fakeReviewRepo struct {
	mu    sync.RWMutex
	seq   int64
	items map[int64]*entity.ReviewState
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{items: make(map[int64]*entity.ReviewState)}
}

func (r *fakeReviewRepo) Create(ctx context.Context, state *entity.ReviewState) (*entity.ReviewState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	copy := cloneReview(state)
	copy.ID = r.seq
	r.items[copy.ID] = copy
	return cloneReview(copy), nil
}

func (r *fakeReviewRepo) Update(ctx context.Context, state *entity.ReviewState) (*entity.ReviewState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[state.ID]
	if !ok || existing.UserID != state.UserID {
		return nil, entity.ErrReviewNotFound
	}
	copy := cloneReview(state)
	r.items[copy.ID] = copy
	return cloneReview(copy), nil
}

func (r *fakeReviewRepo) GetByUserPhrase(ctx context.Context, userID, phraseID int64) (*entity.ReviewState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.items {
		if item.UserID == userID && item.PhraseID == phraseID {
			return cloneReview(item), nil
		}
	}
	return nil, entity.ErrReviewNotFound
}

func (r *fakeReviewRepo) ListDue(ctx context.Context, userID int64, now time.Time, limit int32) ([]*entity.ReviewState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var due []*entity.ReviewState
	for _, item := range r.items {
		if item.UserID == userID && !item.NextReviewAt.After(now) {
			due = append(due, cloneReview(item))
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextReviewAt.Before(due[j].NextReviewAt) })
	if int32(len(due)) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (r *fakeReviewRepo) ListByUser(ctx context.Context, userID int64, page repository.Pagination) ([]*entity.ReviewState, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []*entity.ReviewState
	for _, item := range r.items {
		if item.UserID == userID {
			all = append(all, cloneReview(item))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, int64(len(all)), nil
}

func cloneReview(src *entity.ReviewState) *entity.ReviewState {
	if src == nil {
		return nil
	}
	copy := *src
	if src.LastReviewedAt != nil {
		last := *src.LastReviewedAt
		copy.LastReviewedAt = &last
	}
	return &copy
}

type fakeSessionRepo struct {
	mu        sync.RWMutex
	seq       int64
	detailSeq int64
	sessions  map[int64]*entity.PracticeSession
	details   []*entity.PracticeSessionDetail
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[int64]*entity.PracticeSession)}
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *entity.PracticeSession) (*entity.PracticeSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	copy := cloneSession(session)
	copy.ID = r.seq
	r.sessions[copy.ID] = copy
	return cloneSession(copy), nil
}

func (r *fakeSessionRepo) Update(ctx context.Context, session *entity.PracticeSession) (*entity.PracticeSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.sessions[session.ID]
	if !ok || existing.UserID != session.UserID {
		return nil, entity.ErrSessionNotFound
	}
	copy := cloneSession(session)
	r.sessions[copy.ID] = copy
	return cloneSession(copy), nil
}

func (r *fakeSessionRepo) GetByID(ctx context.Context, userID, id int64) (*entity.PracticeSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.sessions[id]
	if !ok || item.UserID != userID {
		return nil, entity.ErrSessionNotFound
	}
	return cloneSession(item), nil
}

func (r *fakeSessionRepo) AddDetail(ctx context.Context, detail *entity.PracticeSessionDetail) (*entity.PracticeSessionDetail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detailSeq++
	copy := *detail
	copy.ID = r.detailSeq
	r.details = append(r.details, &copy)
	result := copy
	return &result, nil
}

func (r *fakeSessionRepo) ListByUser(ctx context.Context, userID int64, page repository.Pagination) ([]*entity.PracticeSession, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []*entity.PracticeSession
	for _, item := range r.sessions {
		if item.UserID == userID {
			all = append(all, cloneSession(item))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartedAt.After(all[j].StartedAt) })
	return all, int64(len(all)), nil
}

func (r *fakeSessionRepo) CountPerfect(ctx context.Context, userID int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, item := range r.sessions {
		if item.UserID == userID && item.Completed && item.Perfect() {
			count++
		}
	}
	return count, nil
}

func cloneSession(src *entity.PracticeSession) *entity.PracticeSession {
	if src == nil {
		return nil
	}
	copy := *src
	if src.CompletedAt != nil {
		at := *src.CompletedAt
		copy.CompletedAt = &at
	}
	if src.ModeData != nil {
		copy.ModeData = make(map[string]any, len(src.ModeData))
		for k, v := range src.ModeData {
			copy.ModeData[k] = v
		}
	}
	return &copy
}

type unlockRecord struct {
	Type entity.AchievementType
	At   time.Time
}

type fakeEngagementRepo struct {
	mu           sync.RWMutex
	states       map[int64]*entity.UserEngagementState
	daily        map[int64]map[time.Time]*entity.DailyStatistic
	achievements map[int64]map[entity.AchievementType]unlockRecord

	unlockErr error // when set, UnlockAchievement fails
	statErr   error // when set, UpsertDailyStat fails
}

func newFakeEngagementRepo() *fakeEngagementRepo {
	return &fakeEngagementRepo{
		states:       make(map[int64]*entity.UserEngagementState),
		daily:        make(map[int64]map[time.Time]*entity.DailyStatistic),
		achievements: make(map[int64]map[entity.AchievementType]unlockRecord),
	}
}

func (r *fakeEngagementRepo) GetState(ctx context.Context, userID int64) (*entity.UserEngagementState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.states[userID]
	if !ok {
		return nil, nil
	}
	return cloneEngagement(state), nil
}

func (r *fakeEngagementRepo) UpsertState(ctx context.Context, state *entity.UserEngagementState) (*entity.UserEngagementState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[state.UserID] = cloneEngagement(state)
	return cloneEngagement(state), nil
}

func (r *fakeEngagementRepo) UpsertDailyStat(ctx context.Context, userID int64, date time.Time, delta repository.DailyStatDelta) (*entity.DailyStatistic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.statErr != nil {
		return nil, r.statErr
	}
	days, ok := r.daily[userID]
	if !ok {
		days = make(map[time.Time]*entity.DailyStatistic)
		r.daily[userID] = days
	}
	stat, ok := days[date]
	if !ok {
		stat = &entity.DailyStatistic{UserID: userID, Date: date}
		days[date] = stat
	}
	stat.PhrasesPracticed += delta.PhrasesPracticed
	stat.CorrectAnswers += delta.CorrectAnswers
	stat.PracticeMinutes += delta.PracticeMinutes
	stat.PointsEarned += delta.PointsEarned
	if delta.StreakMaintained != nil {
		stat.StreakMaintained = *delta.StreakMaintained
	}
	result := *stat
	return &result, nil
}

func (r *fakeEngagementRepo) ListDailyStats(ctx context.Context, userID int64, from, to time.Time) ([]*entity.DailyStatistic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*entity.DailyStatistic
	for date, stat := range r.daily[userID] {
		if date.Before(from) || date.After(to) {
			continue
		}
		copy := *stat
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (r *fakeEngagementRepo) UnlockAchievement(ctx context.Context, userID int64, typ entity.AchievementType, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unlockErr != nil {
		return false, r.unlockErr
	}
	unlocked, ok := r.achievements[userID]
	if !ok {
		unlocked = make(map[entity.AchievementType]unlockRecord)
		r.achievements[userID] = unlocked
	}
	if _, exists := unlocked[typ]; exists {
		return false, nil
	}
	unlocked[typ] = unlockRecord{Type: typ, At: at}
	return true, nil
}

func (r *fakeEngagementRepo) ListAchievements(ctx context.Context, userID int64) ([]*entity.Achievement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*entity.Achievement
	var id int64
	for typ, record := range r.achievements[userID] {
		id++
		result = append(result, &entity.Achievement{ID: id, UserID: userID, Type: typ, AchievedAt: record.At})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Type < result[j].Type })
	return result, nil
}

func (r *fakeEngagementRepo) Leaderboard(ctx context.Context, page repository.Pagination) ([]*entity.UserEngagementState, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []*entity.UserEngagementState
	for _, state := range r.states {
		all = append(all, cloneEngagement(state))
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].TotalPoints == all[j].TotalPoints {
			return all[i].UserID < all[j].UserID
		}
		return all[i].TotalPoints > all[j].TotalPoints
	})
	return all, int64(len(all)), nil
}

func cloneEngagement(src *entity.UserEngagementState) *entity.UserEngagementState {
	if src == nil {
		return nil
	}
	copy := *src
	if src.LastPracticeDate != nil {
		date := *src.LastPracticeDate
		copy.LastPracticeDate = &date
	}
	return &copy
}

type fakePhraseCatalog struct {
	mu      sync.RWMutex
	phrases map[int64]*entity.Phrase
}

func newFakePhraseCatalog(phrases ...*entity.Phrase) *fakePhraseCatalog {
	c := &fakePhraseCatalog{phrases: make(map[int64]*entity.Phrase)}
	for _, p := range phrases {
		c.phrases[p.ID] = p
	}
	return c
}

func (c *fakePhraseCatalog) Get(ctx context.Context, id int64) (*entity.Phrase, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	phrase, ok := c.phrases[id]
	if !ok {
		return nil, entity.ErrPhraseNotFound
	}
	copy := *phrase
	return &copy, nil
}

func (c *fakePhraseCatalog) SampleForUser(ctx context.Context, userID int64, n int) ([]*entity.Phrase, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	var result []*entity.Phrase
	for _, phrase := range c.phrases {
		if phrase.UserID != userID || len(result) >= n {
			continue
		}
		copy := *phrase
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (c *fakePhraseCatalog) SampleGlobal(ctx context.Context, n int) ([]*entity.Phrase, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	var result []*entity.Phrase
	for _, phrase := range c.phrases {
		if len(result) >= n {
			break
		}
		copy := *phrase
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
