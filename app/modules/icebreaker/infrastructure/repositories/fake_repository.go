package icebreakerdb

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// FakeRepository is an in-memory Repository for service and handler tests.
// Known users are the ids passed to AddUsers; crediting anyone else fails the
// way the foreign key would.
type FakeRepository struct {
	mu          sync.Mutex
	users       map[uuid.UUID]bool
	assignments map[uuid.UUID]*Assignment // by user id
	answers     map[uuid.UUID]map[int]*Answer
	settings    map[string]string
	dealt       int
	locks       int

	GetAssignmentFunc func(ctx context.Context, db bun.IDB, userID uuid.UUID) (*Assignment, error)
	UpsertAnswerFunc  func(ctx context.Context, db bun.IDB, answer *Answer) error
	GetSettingFunc    func(ctx context.Context, db bun.IDB, key string) (string, error)
	PutSettingFunc    func(ctx context.Context, db bun.IDB, key, value string) error
}

// NewFakeRepository returns an empty FakeRepository.
func NewFakeRepository() *FakeRepository {
	return &FakeRepository{
		users:       map[uuid.UUID]bool{},
		assignments: map[uuid.UUID]*Assignment{},
		answers:     map[uuid.UUID]map[int]*Answer{},
		settings:    map[string]string{},
	}
}

var _ Repository = (*FakeRepository)(nil)

// AddUsers registers ids that may be credited on a card.
func (f *FakeRepository) AddUsers(ids ...uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		f.users[id] = true
	}
}

// DealerLocks returns how many times the dealer lock was taken.
func (f *FakeRepository) DealerLocks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locks
}

func (f *FakeRepository) LockDealer(ctx context.Context, db bun.IDB) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locks++
	return nil
}

func (f *FakeRepository) GetAssignment(ctx context.Context, db bun.IDB, userID uuid.UUID) (*Assignment, error) {
	if f.GetAssignmentFunc != nil {
		return f.GetAssignmentFunc(ctx, db, userID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assignments[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *FakeRepository) CountAssignments(ctx context.Context, db bun.IDB) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.assignments), nil
}

// DropAssignment removes one user's assignment and answers the way deleting
// the account does. The deal counter is left alone.
func (f *FakeRepository) DropAssignment(userID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.assignments[userID]; ok {
		delete(f.answers, a.ID)
		delete(f.assignments, userID)
	}
}

func (f *FakeRepository) ClaimDeal(ctx context.Context, db bun.IDB) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	dealt := f.dealt
	f.dealt++
	return dealt, nil
}

func (f *FakeRepository) CreateAssignment(ctx context.Context, db bun.IDB, assignment *Assignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.assignments[assignment.UserID]; ok {
		return ErrDuplicateAssignment
	}
	cp := *assignment
	f.assignments[assignment.UserID] = &cp
	return nil
}

func (f *FakeRepository) ListAnswers(ctx context.Context, db bun.IDB, assignmentID uuid.UUID) ([]Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Answer, 0, len(f.answers[assignmentID]))
	for _, a := range f.answers[assignmentID] {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionNumber < out[j].QuestionNumber })
	return out, nil
}

func (f *FakeRepository) UpsertAnswer(ctx context.Context, db bun.IDB, answer *Answer) error {
	if f.UpsertAnswerFunc != nil {
		return f.UpsertAnswerFunc(ctx, db, answer)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.users[answer.AnsweredUserID] {
		return ErrUnknownUser
	}
	card := f.answers[answer.AssignmentID]
	if card == nil {
		card = map[int]*Answer{}
		f.answers[answer.AssignmentID] = card
	}
	for q, a := range card {
		if q != answer.QuestionNumber && a.AnsweredUserID == answer.AnsweredUserID {
			return ErrPersonAlreadyUsed
		}
	}
	if existing, ok := card[answer.QuestionNumber]; ok {
		existing.AnsweredUserID = answer.AnsweredUserID
		existing.UpdatedAt = answer.UpdatedAt
		return nil
	}
	cp := *answer
	card[answer.QuestionNumber] = &cp
	return nil
}

func (f *FakeRepository) DeleteAnswer(ctx context.Context, db bun.IDB, assignmentID uuid.UUID, questionNumber int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.answers[assignmentID][questionNumber]; !ok {
		return ErrNotFound
	}
	delete(f.answers[assignmentID], questionNumber)
	return nil
}

func (f *FakeRepository) CountAnswers(ctx context.Context, db bun.IDB) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, card := range f.answers {
		n += len(card)
	}
	return n, nil
}

func (f *FakeRepository) Progress(ctx context.Context, db bun.IDB, limit int) ([]ProgressRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	type row struct {
		ProgressRow
		a *Assignment
	}
	rows := make([]row, 0, len(f.assignments))
	for _, a := range f.assignments {
		rows = append(rows, row{
			ProgressRow: ProgressRow{UserID: a.UserID, CardID: a.CardID, Answered: len(f.answers[a.ID])},
			a:           a,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Answered != rows[j].Answered {
			return rows[i].Answered > rows[j].Answered
		}
		return rows[i].a.CreatedAt.Before(rows[j].a.CreatedAt)
	})
	out := make([]ProgressRow, 0, len(rows))
	for i := range rows {
		if limit > 0 && i >= limit {
			break
		}
		out = append(out, rows[i].ProgressRow)
	}
	return out, nil
}

func (f *FakeRepository) ResetAll(ctx context.Context, db bun.IDB) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assignments = map[uuid.UUID]*Assignment{}
	f.answers = map[uuid.UUID]map[int]*Answer{}
	f.dealt = 0
	return nil
}

func (f *FakeRepository) GetSetting(ctx context.Context, db bun.IDB, key string) (string, error) {
	if f.GetSettingFunc != nil {
		return f.GetSettingFunc(ctx, db, key)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.settings[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (f *FakeRepository) PutSetting(ctx context.Context, db bun.IDB, key, value string) error {
	if f.PutSettingFunc != nil {
		return f.PutSettingFunc(ctx, db, key, value)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings[key] = value
	return nil
}
