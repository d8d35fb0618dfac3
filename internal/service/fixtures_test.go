package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/student-insight-api/internal/models"
	appErrors "github.com/noah-isme/student-insight-api/pkg/errors"
)

type stubFeedRepo struct {
	mu         sync.Mutex
	practice   []models.PracticeRecord
	sessions   []models.PracticeSession
	quiz       []models.QuizEvent
	video      []models.VideoSession
	math       []models.MathDrill
	identities [][]models.StudentIdentity
	failures   map[string]error
	calls      map[string]int
}

func (s *stubFeedRepo) record(feed string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[feed]++
	return s.failures[feed]
}

func (s *stubFeedRepo) callCount(feed string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[feed]
}

func (s *stubFeedRepo) Practice(context.Context) ([]models.PracticeRecord, error) {
	return s.practice, s.record("practice")
}

func (s *stubFeedRepo) PracticeSessions(context.Context) ([]models.PracticeSession, error) {
	return s.sessions, s.record("practice_sessions")
}

func (s *stubFeedRepo) Quiz(context.Context) ([]models.QuizEvent, error) {
	return s.quiz, s.record("quiz")
}

func (s *stubFeedRepo) Video(context.Context) ([]models.VideoSession, error) {
	return s.video, s.record("video")
}

func (s *stubFeedRepo) Math(context.Context) ([]models.MathDrill, error) {
	return s.math, s.record("math")
}

func (s *stubFeedRepo) IdentitySources() int { return len(s.identities) }

func (s *stubFeedRepo) Identities(_ context.Context, i int) ([]models.StudentIdentity, error) {
	if err := s.record("identity"); err != nil {
		return nil, err
	}
	return s.identities[i], nil
}

type memoryCacheRepo struct {
	mu    sync.Mutex
	store map[string][]byte
	err   error
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	payload, ok := m.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil {
		m.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.store[key] = payload
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.store {
		if strings.HasPrefix(key, prefix) {
			delete(m.store, key)
		}
	}
	return nil
}

var errFeedDown = errors.New("feed down")

func ptr[T any](v T) *T { return &v }

func day(s string) *time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.UTC)
	if err != nil {
		t, err = time.ParseInLocation("2006-01-02", s, time.UTC)
		if err != nil {
			panic(err)
		}
	}
	return &t
}

func studentClaims(key int64) *models.StudentClaims {
	return &models.StudentClaims{StudentKey: key, Name: "4561", ID: "101", OrganizationID: 101, Grade: 5, Class: 2}
}

// fixtureFeeds is a small class of three students (4561, 4562, 4563) plus one
// student of another class (9001).
func fixtureFeeds() *stubFeedRepo {
	return &stubFeedRepo{
		practice: []models.PracticeRecord{
			{UserSN: 4561, OrganizationID: 101, Grade: 5, Class: 2, PracticeSN: ptr(int64(2)), Date: day("2024-03-05"), DuringTime: ptr(40.0), ScoreRate: ptr(50.0),
				BinaryRes: []float64{1, 0}, ItemsAnsTime: []float64{10, 20}, IndicatorName: "加法", SubjectName: "數學", MathScore: ptr(88.0)},
			{UserSN: 4561, OrganizationID: 101, Grade: 5, Class: 2, PracticeSN: ptr(int64(1)), Date: day("2024-03-01"), DuringTime: ptr(60.0), ScoreRate: ptr(100.0),
				BinaryRes: []float64{1, 1}, ItemsAnsTime: []float64{5, 7, 9}, IndicatorName: "減法", SubjectName: "數學"},
			{UserSN: 4561, OrganizationID: 101, Grade: 5, Class: 2, ScoreRate: ptr(0.0), IndicatorName: "加法", SubjectName: "國語"},
			{UserSN: 4562, OrganizationID: 101, Grade: 5, Class: 2, Date: day("2024-03-04"), ScoreRate: ptr(90.0), BinaryRes: []float64{1}, IndicatorName: "加法"},
			{UserSN: 4563, OrganizationID: 101, Grade: 5, Class: 2, ScoreRate: ptr(40.0)},
			{UserSN: 9001, OrganizationID: 202, Grade: 5, Class: 2, ScoreRate: ptr(10.0)},
		},
		sessions: []models.PracticeSession{
			{UserSN: 4561, PracticeSN: 2, Date: day("2024-03-05"), Accuracy: 0.5},
			{UserSN: 4561, PracticeSN: 1, Date: day("2024-03-01"), Accuracy: 1},
			{UserSN: 4562, PracticeSN: 3, Date: day("2024-03-04"), Accuracy: 1},
		},
		quiz: []models.QuizEvent{
			{UserSN: 4561, SN: 1, MissionID: "M1", ObjectType: "選擇題", ActionTime: day("2024-03-02 09:00:00"), ResultSuccess: "答對", ResultDuration: "0分10秒"},
			{UserSN: 4561, SN: 2, MissionID: "M1", ActionTime: day("2024-03-02 09:01:00"), ResultSuccess: "答對", ResultDuration: "0分20秒"},
			{UserSN: 4561, SN: 3, MissionID: "M2", ObjectType: "填充題", ActionTime: day("2024-03-03 10:00:00"), ResultSuccess: "答錯", ResultDuration: "1分0秒"},
			{UserSN: 4562, SN: 4, MissionID: "M9", ResultSuccess: "答對"},
		},
		video: []models.VideoSession{
			{UserSN: 4561, SubjectName: "數學", VideoName: "分數", VideoLen: 100, FinishRate: 100, StartTime: "2024-03-01 08:00:00"},
			{UserSN: 4561, SubjectName: "國語", VideoName: "成語", VideoLen: 200, FinishRate: 20, StartTime: "2024-03-03 08:00:00"},
			{UserSN: 4561, SubjectName: "數學", VideoName: "小數", VideoLen: 50, FinishRate: 60, StartTime: "2024-03-03 09:00:00"},
			{UserSN: 4563, SubjectName: "數學", VideoName: "分數", VideoLen: 100, FinishRate: 10, StartTime: "2024-03-02 08:00:00"},
		},
		math: []models.MathDrill{
			{UserSN: 4561, UnitName: "分數加法", IsCorrect: 1, GameTimeMS: ptr(2000.0), LastModified: day("2024-03-03 10:00:00"), MathScore: ptr(70.0)},
			{UserSN: 4561, UnitName: "小數", IsCorrect: 0, GameTimeMS: ptr(4000.0), LastModified: day("2024-03-01 10:00:00"), MathScore: ptr(65.0)},
			{UserSN: 4561, UnitName: "分數減法", IsCorrect: 1, LastModified: day("2024-03-02 10:00:00")},
			{UserSN: 4562, UnitName: "小數", IsCorrect: 1, LastModified: day("2024-03-02 10:00:00")},
		},
		identities: [][]models.StudentIdentity{
			{},
			{
				{Name: "4561", ID: "101", StudentKey: 4561, OrganizationID: 101, Grade: 5, Class: 2, Seat: 7, MathScore: 88},
				{Name: "4562", ID: "101", StudentKey: 4562, OrganizationID: 101, Grade: 5, Class: 2, Seat: 8},
			},
		},
	}
}
