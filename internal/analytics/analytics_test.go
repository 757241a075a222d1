package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eredeticsakra/csakra-api/internal/models"
	"github.com/eredeticsakra/csakra-api/internal/storage"
)

// fixture bundles in-memory stores with the service under test.
type fixture struct {
	results   *storage.MemoryQuizResultRepo
	purchases *storage.MemoryPurchaseRepo
	sessions  *storage.MemorySessionRepo
	pageViews *storage.MemoryPageViewRepo
	events    *storage.MemoryEventRepo
	svc       *Service
}

func newFixture() *fixture {
	f := &fixture{
		results:   storage.NewMemoryQuizResultRepo(),
		purchases: storage.NewMemoryPurchaseRepo(),
		sessions:  storage.NewMemorySessionRepo(),
		pageViews: storage.NewMemoryPageViewRepo(),
		events:    storage.NewMemoryEventRepo(),
	}
	f.svc = NewService(f.results, f.purchases, f.sessions, f.pageViews, f.events, zap.NewNop())
	return f
}

var resultSeq int

func validAnswers() []int {
	answers := make([]int, models.QuizAnswerCount)
	for i := range answers {
		answers[i] = 2
	}
	return answers
}

func validScores() map[string]int {
	return map[string]int{
		"root": 8, "sacral": 8, "solar": 8, "heart": 8,
		"throat": 8, "third_eye": 8, "crown": 8,
	}
}

func (f *fixture) addResult(email string, age *int, createdAt time.Time) *models.QuizResult {
	resultSeq++
	q := &models.QuizResult{
		ID:           fmt.Sprintf("result-%d", resultSeq),
		Name:         "Teszt Elek",
		Email:        email,
		Age:          age,
		Answers:      validAnswers(),
		ChakraScores: validScores(),
		CreatedAt:    createdAt,
	}
	if err := f.results.Insert(context.Background(), q); err != nil {
		panic(err)
	}
	return q
}

func (f *fixture) addPurchase(email, productID string, amount float64, status string, createdAt time.Time) *models.Purchase {
	resultSeq++
	p := &models.Purchase{
		ID:          fmt.Sprintf("purchase-%d", resultSeq),
		Email:       email,
		ProductID:   productID,
		ProductName: productID,
		Amount:      amount,
		Currency:    "HUF",
		Status:      status,
		CreatedAt:   createdAt,
	}
	if err := f.purchases.Insert(context.Background(), p); err != nil {
		panic(err)
	}
	return p
}

func (f *fixture) addSession(email, status string, startedAt time.Time) {
	resultSeq++
	s := &models.QuizSession{
		ID:           fmt.Sprintf("session-%d", resultSeq),
		SessionToken: fmt.Sprintf("token-%d", resultSeq),
		Email:        email,
		Status:       status,
		StartedAt:    startedAt,
	}
	if err := f.sessions.Upsert(context.Background(), s); err != nil {
		panic(err)
	}
}

func (f *fixture) addPageView(token string, createdAt time.Time) {
	resultSeq++
	pv := &models.PageView{
		ID:           fmt.Sprintf("view-%d", resultSeq),
		Path:         "/",
		SessionToken: token,
		CreatedAt:    createdAt,
	}
	if err := f.pageViews.Insert(context.Background(), pv); err != nil {
		panic(err)
	}
}

func (f *fixture) addEvent(name, token string, data map[string]interface{}, createdAt time.Time) {
	resultSeq++
	e := &models.AnalyticsEvent{
		ID:           fmt.Sprintf("event-%d", resultSeq),
		EventName:    name,
		SessionToken: token,
		EventData:    data,
		CreatedAt:    createdAt,
	}
	if err := f.events.Insert(context.Background(), e); err != nil {
		panic(err)
	}
}

// errPageViewRepo simulates a store outage and records whether any
// query reached it.
type errPageViewRepo struct {
	calls int
}

var errStore = errors.New("store unavailable")

func (r *errPageViewRepo) Insert(ctx context.Context, pv *models.PageView) error {
	r.calls++
	return errStore
}

func (r *errPageViewRepo) CountDistinctSessionsSince(ctx context.Context, since time.Time) (int64, error) {
	r.calls++
	return 0, errStore
}

func (r *errPageViewRepo) ListSince(ctx context.Context, since time.Time) ([]*models.PageView, error) {
	r.calls++
	return nil, errStore
}

// errQuizRepo fails every read.
type errQuizRepo struct {
	storage.QuizResultRepo
}

func (r *errQuizRepo) GetByID(ctx context.Context, id string) (*models.QuizResult, error) {
	return nil, errStore
}
