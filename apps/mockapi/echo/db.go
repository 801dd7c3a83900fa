package echoapi

import (
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "Admin"
)

type (
	UserRow struct {
		ID           string
		Email        string
		PasswordHash []byte
		Role         string
		FirstName    string
		LastName     string
		IsActive     bool
		CreatedAt    time.Time
	}

	CourseRow struct {
		ID                 string
		Name               string
		Description        string
		IsActive           bool
		PassingScore       float64
		MaxScore           float64
		Syllabus           string
		Instructions       string
		EvaluationCriteria string
		CreatedAt          time.Time
		UpdatedAt          time.Time
	}

	StudentRow struct {
		ID          string
		UserID      string
		FirstName   string
		LastName    string
		Email       string
		PhoneNumber string
		Gender      string
		DateOfBirth string
		CourseIDs   []string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// FeedbackRow is a stored feedback; CreatedAt is kept raw so that odd timestamps can be seeded.
	FeedbackRow struct {
		ID                  string
		StudentID           string
		CourseID            string
		AgentName           string
		DailyCallID         string
		OverallRating       float64
		CommunicationRating float64
		TechnicalRating     float64
		ConfidenceRating    float64
		FeedbackText        string
		Strengths           string
		Improvements        string
		Recommendations     string
		CreatedAt           string
	}

	MemoryRow struct {
		ID        string
		CourseID  string
		Name      string
		Type      string
		URL       string
		FilePath  string
		Content   string
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// DB is the in-memory storage of the development API.
	DB struct {
		mutex     sync.RWMutex
		users     []*UserRow
		courses   []*CourseRow
		students  []*StudentRow
		feedbacks []*FeedbackRow
		memories  []*MemoryRow
	}
)

func (u *UserRow) isAdmin() bool { return strings.EqualFold(u.Role, RoleAdmin) }

func (s *StudentRow) enrolledIn(courseID string) bool {
	for _, id := range s.CourseIDs {
		if id == courseID {
			return true
		}
	}
	return false
}

func (s *StudentRow) fullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

func NewDB() *DB {
	return new(DB)
}

func newID() string { return uuid.New().String() }

// Users

func (db *DB) CreateUser(email, password, role string) (*UserRow, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, "hashing password")
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range db.users {
		if u.Email == email {
			return nil, badRequest("A user with this email already exists")
		}
	}
	usr := &UserRow{
		ID:           newID(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	db.users = append(db.users, usr)
	return usr, nil
}

func (db *DB) User(id string) (*UserRow, bool) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	for _, u := range db.users {
		if u.ID == id {
			return u, true
		}
	}
	return nil, false
}

func (db *DB) UserByEmail(email string) (*UserRow, bool) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range db.users {
		if u.Email == email {
			return u, true
		}
	}
	return nil, false
}

// Courses

func (db *DB) SaveCourse(c CourseRow) *CourseRow {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	now := time.Now().UTC()
	c.UpdatedAt = now
	for i, orig := range db.courses {
		if orig.ID == c.ID {
			c.CreatedAt = orig.CreatedAt
			db.courses[i] = &c
			return &c
		}
	}
	if c.ID == "" {
		c.ID = newID()
	}
	c.CreatedAt = now
	db.courses = append(db.courses, &c)
	return &c
}

func (db *DB) Course(id string) (*CourseRow, bool) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return db.course(id)
}

func (db *DB) course(id string) (*CourseRow, bool) {
	for _, c := range db.courses {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

func (db *DB) Courses(isActive *bool) []CourseRow {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	courses := make([]CourseRow, 0, len(db.courses))
	for _, c := range db.courses {
		if isActive == nil || c.IsActive == *isActive {
			courses = append(courses, *c)
		}
	}
	return courses
}

func (db *DB) DeleteCourse(id string) bool {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for i, c := range db.courses {
		if c.ID == id {
			db.courses = append(db.courses[:i], db.courses[i+1:]...)
			for _, s := range db.students {
				s.CourseIDs = removeString(s.CourseIDs, id)
			}
			return true
		}
	}
	return false
}

// Students

func (db *DB) SaveStudent(s StudentRow) (*StudentRow, error) {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for _, id := range s.CourseIDs {
		if _, ok := db.course(id); !ok {
			return nil, badRequest("Invalid course id: " + id)
		}
	}

	now := time.Now().UTC()
	s.UpdatedAt = now
	for i, orig := range db.students {
		if orig.ID == s.ID {
			s.CreatedAt = orig.CreatedAt
			db.students[i] = &s
			return &s, nil
		}
	}
	if s.ID == "" {
		s.ID = newID()
	}
	s.CreatedAt = now
	db.students = append(db.students, &s)
	return &s, nil
}

func (db *DB) Student(id string) (*StudentRow, bool) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return db.student(id)
}

func (db *DB) student(id string) (*StudentRow, bool) {
	for _, s := range db.students {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

func (db *DB) StudentByUser(userID string) (*StudentRow, bool) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	for _, s := range db.students {
		if s.UserID != "" && s.UserID == userID {
			return s, true
		}
	}
	return nil, false
}

type studentFilter struct {
	CourseID    string `json:"course_id"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
}

func (db *DB) Students(f studentFilter) []StudentRow {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	students := make([]StudentRow, 0, len(db.students))
	for _, s := range db.students {
		if f.CourseID != "" && !s.enrolledIn(f.CourseID) {
			continue
		}
		if f.PhoneNumber != "" && s.PhoneNumber != f.PhoneNumber {
			continue
		}
		if f.Email != "" && !strings.EqualFold(s.Email, f.Email) {
			continue
		}
		students = append(students, *s)
	}
	return students
}

func (db *DB) AssociateUser(studentID, userID string) (*StudentRow, error) {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	s, ok := db.student(studentID)
	if !ok {
		return nil, errStudentNotFound
	}
	for _, other := range db.students {
		if other.UserID == userID && other.ID != studentID {
			return nil, badRequest("User is already associated with another student")
		}
	}
	s.UserID = userID
	s.UpdatedAt = time.Now().UTC()
	return s, nil
}

func (db *DB) DeleteStudent(id string) bool {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for i, s := range db.students {
		if s.ID == id {
			db.students = append(db.students[:i], db.students[i+1:]...)
			return true
		}
	}
	return false
}

// Feedback

// AddFeedback stores fb, generating its id and creation time when missing.
func (db *DB) AddFeedback(fb FeedbackRow) FeedbackRow {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	if fb.ID == "" {
		fb.ID = newID()
	}
	if fb.CreatedAt == "" {
		fb.CreatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	db.feedbacks = append(db.feedbacks, &fb)
	return fb
}

func (db *DB) Feedback(id string) (FeedbackRow, bool) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	for _, fb := range db.feedbacks {
		if fb.ID == id {
			return *fb, true
		}
	}
	return FeedbackRow{}, false
}

// Feedbacks returns the matching feedbacks, newest first (as stored when timestamps are odd).
func (db *DB) Feedbacks(match func(fb *FeedbackRow) bool) []FeedbackRow {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	var fbs []FeedbackRow
	for _, fb := range db.feedbacks {
		if match(fb) {
			fbs = append(fbs, *fb)
		}
	}
	sort.SliceStable(fbs, func(i, j int) bool { return fbs[i].CreatedAt > fbs[j].CreatedAt })
	return fbs
}

// Memories

func (db *DB) AddMemory(m MemoryRow) MemoryRow {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	now := time.Now().UTC()
	m.ID = newID()
	m.CreatedAt, m.UpdatedAt = now, now
	db.memories = append(db.memories, &m)
	return m
}

func (db *DB) Memory(courseID, id string) (MemoryRow, bool) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	for _, m := range db.memories {
		if m.ID == id && m.CourseID == courseID {
			return *m, true
		}
	}
	return MemoryRow{}, false
}

func (db *DB) DeleteMemory(courseID, id string) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for i, m := range db.memories {
		if m.ID == id && m.CourseID == courseID {
			db.memories = append(db.memories[:i], db.memories[i+1:]...)
			return nil
		}
	}
	return newAPIError(http.StatusNotFound, "Memory not found")
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
