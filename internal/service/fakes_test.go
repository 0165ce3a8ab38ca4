package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ccccowo/imark-backend/internal/model"
)

// memStore is an in-memory implementation of every persistence surface
// the services consume. Single mutex, good enough for tests.
type memStore struct {
	mu        sync.Mutex
	exams     map[uuid.UUID]*model.Exam
	examinees map[uuid.UUID]*model.Examinee
	questions map[uuid.UUID]*model.Question
	records   map[uuid.UUID]*model.AnswerRecord

	failCreateBatch bool
}

func newMemStore() *memStore {
	return &memStore{
		exams:     make(map[uuid.UUID]*model.Exam),
		examinees: make(map[uuid.UUID]*model.Examinee),
		questions: make(map[uuid.UUID]*model.Question),
		records:   make(map[uuid.UUID]*model.AnswerRecord),
	}
}

func (m *memStore) Create(_ context.Context, exam *model.Exam, examinees []model.Examinee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := *exam
	m.exams[exam.ID] = &e
	for i := range examinees {
		ex := examinees[i]
		m.examinees[ex.ID] = &ex
	}
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[id]
	if !ok {
		return nil, ErrExamNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memStore) ListPaginated(_ context.Context, limit, offset int) ([]model.Exam, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]model.Exam, 0, len(m.exams))
	for _, e := range m.exams {
		all = append(all, *e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	total := len(all)
	if offset >= total {
		return []model.Exam{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.exams, id)
	return nil
}

func (m *memStore) UpdatePaper(_ context.Context, id uuid.UUID, imagePath string, width, height int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[id]
	if !ok {
		return ErrExamNotFound
	}
	e.PaperImage = imagePath
	e.PaperWidth = width
	e.PaperHeight = height
	return nil
}

func (m *memStore) UpdateStatusIf(_ context.Context, id uuid.UUID, expect, next model.ExamStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[id]
	if !ok || e.Status != expect {
		return false, nil
	}
	e.Status = next
	return true, nil
}

func (m *memStore) ListByExam(_ context.Context, examID uuid.UUID) ([]model.Examinee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Examinee
	for _, ex := range m.examinees {
		if ex.ExamID == examID {
			out = append(out, *ex)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

func (m *memStore) RecomputeTotal(_ context.Context, examineeID uuid.UUID) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ex, ok := m.examinees[examineeID]
	if !ok {
		return 0, ErrExamineeNotFound
	}
	total := 0.0
	for _, r := range m.records {
		if r.ExamineeID == examineeID && r.TeacherScore != nil {
			total += *r.TeacherScore
		}
	}
	ex.TotalScore = total
	return total, nil
}

func (m *memStore) ReplaceAll(_ context.Context, examID uuid.UUID, questions []model.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, q := range m.questions {
		if q.ExamID == examID {
			delete(m.questions, id)
		}
	}
	for i := range questions {
		q := questions[i]
		m.questions[q.ID] = &q
	}
	return nil
}

func (m *memStore) ListQuestionsByExam(_ context.Context, examID uuid.UUID) ([]model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Question
	for _, q := range m.questions {
		if q.ExamID == examID {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNum < out[j].OrderNum })
	return out, nil
}

func (m *memStore) UpdateKeys(_ context.Context, examID uuid.UUID, questions []model.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range questions {
		q, ok := m.questions[questions[i].ID]
		if !ok || q.ExamID != examID {
			return ErrQuestionNotFound
		}
		q.QuestionType = questions[i].QuestionType
		q.FullScore = questions[i].FullScore
		q.CorrectAnswer = questions[i].CorrectAnswer
	}
	return nil
}

func (m *memStore) CreateBatch(_ context.Context, records []model.AnswerRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreateBatch {
		return fmt.Errorf("insert failed")
	}
	type key struct {
		q, e uuid.UUID
	}
	seen := make(map[key]bool)
	for _, r := range records {
		k := key{r.QuestionID, r.ExamineeID}
		if seen[k] {
			return fmt.Errorf("duplicate record for %v", k)
		}
		seen[k] = true
	}
	for i := range records {
		r := records[i]
		m.records[r.ID] = &r
	}
	return nil
}

func (m *memStore) ExistsByExam(_ context.Context, examID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ExamID == examID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) GetRecordByID(_ context.Context, id uuid.UUID) (*model.AnswerRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) ListByQuestion(_ context.Context, examID, questionID uuid.UUID) ([]model.AnswerRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.AnswerRecord
	for _, r := range m.records {
		if r.ExamID == examID && r.QuestionID == questionID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) SetTeacherGrade(_ context.Context, id uuid.UUID, score float64, comment string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return ErrRecordNotFound
	}
	r.TeacherScore = &score
	r.TeacherComment = comment
	r.IsGraded = true
	return nil
}

func (m *memStore) SetAIGrade(_ context.Context, id uuid.UUID, score float64, comment string, confidence float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return ErrRecordNotFound
	}
	r.AIScore = &score
	r.AIComment = comment
	r.AIConfidence = &confidence
	return nil
}

func (m *memStore) CountByExam(_ context.Context, examID uuid.UUID) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	graded, total := 0, 0
	for _, r := range m.records {
		if r.ExamID != examID {
			continue
		}
		total++
		if r.IsGraded {
			graded++
		}
	}
	return graded, total, nil
}

// questionStoreAdapter narrows memStore to the QuestionStore interface,
// whose ListByExam collides with the examinee one.
type questionStoreAdapter struct{ *memStore }

func (a questionStoreAdapter) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	return a.ListQuestionsByExam(ctx, examID)
}

// answerStoreAdapter resolves the GetByID collision with ExamStore.
type answerStoreAdapter struct{ *memStore }

func (a answerStoreAdapter) GetByID(ctx context.Context, id uuid.UUID) (*model.AnswerRecord, error) {
	return a.GetRecordByID(ctx, id)
}

// memImageStore records saves in memory and can fail on demand.
type memImageStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string

	failAfter int // fail the Nth save when > 0
	saves     int
}

func newMemImageStore() *memImageStore {
	return &memImageStore{objects: make(map[string][]byte)}
}

func (s *memImageStore) Save(_ context.Context, key string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.failAfter > 0 && s.saves >= s.failAfter {
		return "", fmt.Errorf("disk full")
	}
	s.objects[key] = data
	return "/uploads/" + key, nil
}

func (s *memImageStore) DeletePrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, prefix)
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			delete(s.objects, key)
		}
	}
	return nil
}

func (s *memImageStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// memLocker is an in-memory Locker.
type memLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemLocker() *memLocker {
	return &memLocker{held: make(map[string]bool)}
}

func (l *memLocker) TryAcquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *memLocker) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

// memBus captures enqueued jobs and published events.
type memBus struct {
	mu        sync.Mutex
	enqueued  [][]byte
	published []string
}

func (b *memBus) Enqueue(_ context.Context, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enqueued = append(b.enqueued, payload)
	return nil
}

func (b *memBus) Publish(_ context.Context, examID string, _ []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, examID)
	return nil
}
