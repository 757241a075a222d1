package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/eredeticsakra/csakra-api/internal/models"
)

// In-memory repositories. Not durable; they back the server when
// PostgreSQL is unavailable at startup and serve as test doubles.

// =============================================
// QUIZ RESULTS
// =============================================

// MemoryQuizResultRepo stores quiz results in memory.
type MemoryQuizResultRepo struct {
	mu      sync.RWMutex
	results []*models.QuizResult
}

// NewMemoryQuizResultRepo constructs an empty quiz result repo.
func NewMemoryQuizResultRepo() *MemoryQuizResultRepo {
	return &MemoryQuizResultRepo{}
}

func (r *MemoryQuizResultRepo) Insert(ctx context.Context, q *models.QuizResult) error {
	if err := q.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *q
	r.results = append(r.results, &cp)
	return nil
}

func (r *MemoryQuizResultRepo) GetByID(ctx context.Context, id string) (*models.QuizResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, q := range r.results {
		if q.ID == id {
			cp := *q
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MemoryQuizResultRepo) CountAll(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.results)), nil
}

func (r *MemoryQuizResultRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, q := range r.results {
		if !q.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *MemoryQuizResultRepo) ListSince(ctx context.Context, since time.Time) ([]*models.QuizResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.QuizResult
	for _, q := range r.results {
		if !q.CreatedAt.Before(since) {
			cp := *q
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryQuizResultRepo) ListRecent(ctx context.Context, limit int) ([]*models.QuizResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.QuizResult, 0, len(r.results))
	for _, q := range r.results {
		cp := *q
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryQuizResultRepo) ListEmails(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	emails := make([]string, 0, len(r.results))
	for _, q := range r.results {
		emails = append(emails, q.Email)
	}
	return emails, nil
}

func (r *MemoryQuizResultRepo) ListAges(ctx context.Context) ([]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ages []int
	for _, q := range r.results {
		if q.Age != nil {
			ages = append(ages, *q.Age)
		}
	}
	return ages, nil
}

func (r *MemoryQuizResultRepo) Search(ctx context.Context, query string, limit int) ([]*models.QuizResult, error) {
	q := strings.ToLower(query)
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.QuizResult
	for _, res := range r.results {
		if strings.Contains(strings.ToLower(res.Name), q) || strings.Contains(strings.ToLower(res.Email), q) {
			cp := *res
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryQuizResultRepo) List(ctx context.Context, f UserFilter) ([]*models.QuizResult, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(f.Search))
	var matched []*models.QuizResult
	for _, q := range r.results {
		if search != "" &&
			!strings.Contains(strings.ToLower(q.Name), search) &&
			!strings.Contains(strings.ToLower(q.Email), search) {
			continue
		}
		if f.DateFrom != nil && q.CreatedAt.Before(*f.DateFrom) {
			continue
		}
		if f.DateTo != nil && q.CreatedAt.After(*f.DateTo) {
			continue
		}
		cp := *q
		matched = append(matched, &cp)
	}

	less := func(a, b *models.QuizResult) bool {
		switch f.SortBy {
		case "name":
			return a.Name < b.Name
		case "email":
			return a.Email < b.Email
		case "age":
			av, bv := 0, 0
			if a.Age != nil {
				av = *a.Age
			}
			if b.Age != nil {
				bv = *b.Age
			}
			return av < bv
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if f.SortDesc {
			return less(matched[j], matched[i])
		}
		return less(matched[i], matched[j])
	})

	total := int64(len(matched))
	if f.Offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[f.Offset:]
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, total, nil
}

// =============================================
// PURCHASES
// =============================================

// MemoryPurchaseRepo stores purchases in memory.
type MemoryPurchaseRepo struct {
	mu        sync.RWMutex
	purchases []*models.Purchase
}

// NewMemoryPurchaseRepo constructs an empty purchase repo.
func NewMemoryPurchaseRepo() *MemoryPurchaseRepo {
	return &MemoryPurchaseRepo{}
}

func (r *MemoryPurchaseRepo) Insert(ctx context.Context, p *models.Purchase) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.purchases = append(r.purchases, &cp)
	return nil
}

func (r *MemoryPurchaseRepo) UpdateStatus(ctx context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.purchases {
		if p.ID == id {
			p.Status = status
			return nil
		}
	}
	return errNotFound("purchase", id)
}

func (r *MemoryPurchaseRepo) ListCompletedSince(ctx context.Context, since time.Time) ([]*models.Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.Purchase
	for _, p := range r.purchases {
		if p.Status == models.PurchaseCompleted && !p.CreatedAt.Before(since) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryPurchaseRepo) CountCompletedSince(ctx context.Context, since time.Time) (int64, error) {
	list, err := r.ListCompletedSince(ctx, since)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (r *MemoryPurchaseRepo) ListByEmail(ctx context.Context, email string) ([]*models.Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.Purchase
	for _, p := range r.purchases {
		if p.Email == email {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryPurchaseRepo) CompletedCountsByEmail(ctx context.Context, emails []string) (map[string]int, error) {
	want := make(map[string]bool, len(emails))
	for _, e := range emails {
		want[e] = true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int)
	for _, p := range r.purchases {
		if p.Status == models.PurchaseCompleted && want[p.Email] {
			counts[p.Email]++
		}
	}
	return counts, nil
}

func (r *MemoryPurchaseRepo) ListCompletedEmails(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var emails []string
	for _, p := range r.purchases {
		if p.Status == models.PurchaseCompleted {
			emails = append(emails, p.Email)
		}
	}
	return emails, nil
}

// =============================================
// QUIZ SESSIONS
// =============================================

// MemorySessionRepo stores quiz sessions in memory.
type MemorySessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]*models.QuizSession
}

// NewMemorySessionRepo constructs an empty session repo.
func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{sessions: make(map[string]*models.QuizSession)}
}

func (r *MemorySessionRepo) Upsert(ctx context.Context, s *models.QuizSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *MemorySessionRepo) CountActiveSince(ctx context.Context, since time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, s := range r.sessions {
		if s.Status == models.SessionActive && !s.StartedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *MemorySessionRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int64)
	for _, s := range r.sessions {
		counts[s.Status]++
	}
	return counts, nil
}

func (r *MemorySessionRepo) ListByEmail(ctx context.Context, email string) ([]*models.QuizSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.QuizSession
	for _, s := range r.sessions {
		if s.Email == email {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

// =============================================
// PAGE VIEWS AND FUNNEL EVENTS
// =============================================

// MemoryPageViewRepo stores page views in memory.
type MemoryPageViewRepo struct {
	mu    sync.RWMutex
	views []*models.PageView
}

// NewMemoryPageViewRepo constructs an empty page view repo.
func NewMemoryPageViewRepo() *MemoryPageViewRepo {
	return &MemoryPageViewRepo{}
}

func (r *MemoryPageViewRepo) Insert(ctx context.Context, pv *models.PageView) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *pv
	r.views = append(r.views, &cp)
	return nil
}

func (r *MemoryPageViewRepo) CountDistinctSessionsSince(ctx context.Context, since time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	for _, pv := range r.views {
		if !pv.CreatedAt.Before(since) {
			seen[pv.SessionToken] = true
		}
	}
	return int64(len(seen)), nil
}

func (r *MemoryPageViewRepo) ListSince(ctx context.Context, since time.Time) ([]*models.PageView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.PageView
	for _, pv := range r.views {
		if !pv.CreatedAt.Before(since) {
			cp := *pv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// MemoryEventRepo stores funnel events in memory.
type MemoryEventRepo struct {
	mu     sync.RWMutex
	events []*models.AnalyticsEvent
}

// NewMemoryEventRepo constructs an empty event repo.
func NewMemoryEventRepo() *MemoryEventRepo {
	return &MemoryEventRepo{}
}

func (r *MemoryEventRepo) Insert(ctx context.Context, e *models.AnalyticsEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	r.events = append(r.events, &cp)
	return nil
}

func (r *MemoryEventRepo) CountDistinctSessions(ctx context.Context, eventName string, since time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	for _, e := range r.events {
		if e.EventName == eventName && !e.CreatedAt.Before(since) {
			seen[e.SessionToken] = true
		}
	}
	return int64(len(seen)), nil
}

func (r *MemoryEventRepo) ListByName(ctx context.Context, eventName string, since time.Time) ([]*models.AnalyticsEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.AnalyticsEvent
	for _, e := range r.events {
		if e.EventName == eventName && !e.CreatedAt.Before(since) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// =============================================
// GIFT CODES AND NEWSLETTER
// =============================================

// MemoryGiftRepo stores gift purchases in memory.
type MemoryGiftRepo struct {
	mu    sync.RWMutex
	gifts map[string]*models.GiftPurchase // keyed by gift code
}

// NewMemoryGiftRepo constructs an empty gift repo.
func NewMemoryGiftRepo() *MemoryGiftRepo {
	return &MemoryGiftRepo{gifts: make(map[string]*models.GiftPurchase)}
}

func (r *MemoryGiftRepo) Insert(ctx context.Context, g *models.GiftPurchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *g
	r.gifts[g.GiftCode] = &cp
	return nil
}

func (r *MemoryGiftRepo) GetByCode(ctx context.Context, code string) (*models.GiftPurchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.gifts[code]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

func (r *MemoryGiftRepo) UpdateStatus(ctx context.Context, code, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gifts[code]
	if !ok {
		return errNotFound("gift code", code)
	}
	g.Status = status
	return nil
}

func (r *MemoryGiftRepo) MarkRedeemed(ctx context.Context, code, resultID, email string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gifts[code]
	if !ok {
		return errNotFound("gift code", code)
	}
	g.Status = models.GiftRedeemed
	g.RedeemedAt = &at
	g.RedeemedBy = resultID
	g.RecipientEmail = email
	return nil
}

// MemoryUnsubscribeRepo stores opt-outs in memory.
type MemoryUnsubscribeRepo struct {
	mu     sync.RWMutex
	emails map[string]bool
}

// NewMemoryUnsubscribeRepo constructs an empty unsubscribe repo.
func NewMemoryUnsubscribeRepo() *MemoryUnsubscribeRepo {
	return &MemoryUnsubscribeRepo{emails: make(map[string]bool)}
}

func (r *MemoryUnsubscribeRepo) Add(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emails[email] = true
	return nil
}

func (r *MemoryUnsubscribeRepo) ListAll(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.emails))
	for e := range r.emails {
		out = append(out, e)
	}
	sort.Strings(out)
	return out, nil
}

func errNotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// NotFoundError reports a missing row for a named identifier.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return e.Kind + " " + e.ID + " not found"
}
