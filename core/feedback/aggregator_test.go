package feedback

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/niva/apiclient"
	"github.com/trezcool/niva/core"
	"github.com/trezcool/niva/core/session"
	"github.com/trezcool/niva/core/student"
	"github.com/trezcool/niva/tests"
)

type answer struct {
	records []Record
	err     error
}

type fakeQuerier struct {
	mu           sync.Mutex
	userCalls    []UserQuery
	studentCalls []string
	bulk         answer
	users        map[string]answer
	pairs        map[string]answer // "student/course"
	block        chan struct{}
}

func (q *fakeQuerier) ByUser(_ context.Context, uq UserQuery) (List, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.userCalls = append(q.userCalls, uq)
	ans := q.bulk
	if uq.UserID != "" {
		ans = q.users[uq.UserID]
	}
	return List{Records: ans.records, TotalCount: len(ans.records)}, ans.err
}

func (q *fakeQuerier) ByStudent(ctx context.Context, studentID, courseID string, _ Page) (List, error) {
	if q.block != nil {
		select {
		case <-q.block:
		case <-ctx.Done():
			return List{}, ctx.Err()
		}
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	key := studentID + "/" + courseID
	q.studentCalls = append(q.studentCalls, key)
	ans, ok := q.pairs[key]
	if !ok {
		return List{}, statusErr(http.StatusNotFound, "No feedback found")
	}
	return List{Records: ans.records, TotalCount: len(ans.records)}, ans.err
}

func statusErr(status int, msg string) error {
	return errors.Wrap(&apiclient.APIError{Kind: apiclient.KindStatus, Status: status, Message: msg}, "listing feedback")
}

type userID string

func (id userID) UserID(context.Context) (string, error) { return string(id), nil }

func rec(id, createdAt string) Record {
	r := Record{ID: id, CreatedAtRaw: createdAt}
	r.CreatedAt, _ = core.ParseTimestamp(createdAt)
	return r
}

func ids(records []Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func stud(id, user string, courses ...string) student.Student {
	st := student.Student{ID: core.FlexString(id), UserID: core.FlexString(user)}
	for _, c := range courses {
		st.Courses = append(st.Courses, student.CourseRef{ID: core.FlexString(c)})
	}
	return st
}

func newAgg(q Querier, user string, opts Options) *Aggregator {
	return NewAggregator(q, userID(user), opts, testutil.NewLogger())
}

func TestAggregator_Load_standardUser(t *testing.T) {
	ctx := context.Background()
	dir := Directory{Students: []student.Student{stud("s1", "u1", "c1"), stud("s2", "u2", "c1")}}

	tests := []struct {
		name    string
		answer  answer
		wantIDs []string
		wantErr bool
	}{
		{name: "records", answer: answer{records: []Record{rec("f1", "2024-01-01T00:00:00Z"), rec("f2", "2024-03-01T00:00:00Z")}}, wantIDs: []string{"f2", "f1"}},
		{name: "no feedback", answer: answer{err: statusErr(http.StatusNotFound, "No feedback found")}, wantIDs: []string{}},
		{name: "no profile", answer: answer{err: statusErr(http.StatusNotFound, "No student profile found for this user")}, wantIDs: []string{}},
		{name: "duplicates kept", answer: answer{records: []Record{rec("f1", "2024-01-01T00:00:00Z"), rec("f1", "2024-01-01T00:00:00Z")}}, wantIDs: []string{"f1", "f1"}},
		{name: "server error", answer: answer{err: statusErr(http.StatusInternalServerError, "boom")}, wantErr: true},
		{name: "unknown route", answer: answer{err: statusErr(http.StatusNotFound, "404 page not found")}, wantErr: true},
		{name: "unknown user", answer: answer{err: statusErr(http.StatusNotFound, "User not found")}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &fakeQuerier{users: map[string]answer{"me": tt.answer}}
			res, err := newAgg(q, "me", Options{}).Load(ctx, session.RoleStandardUser, AggregationRequest{StudentID: "s1", CourseID: "c1"}, dir)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}

			// exactly one request, scoped to the caller, whatever the filters
			if assert.Len(t, q.userCalls, 1) {
				assert.Equal(t, "me", q.userCalls[0].UserID)
				assert.Equal(t, "", q.userCalls[0].CourseID)
			}
			assert.Empty(t, q.studentCalls)
			if tt.wantErr {
				return
			}
			assert.Equal(t, tt.wantIDs, ids(res.Records))
			assert.Equal(t, SourceUser, res.Source)
			if len(tt.wantIDs) == 0 {
				assert.Equal(t, StatusEmpty, res.Status)
			}
		})
	}

	t.Run("not logged in", func(t *testing.T) {
		_, err := newAgg(&fakeQuerier{}, "", Options{}).Load(ctx, session.RoleStandardUser, AggregationRequest{}, dir)
		assert.Equal(t, ErrNoUserID, err)
	})
}

func TestAggregator_Load_adminStudent(t *testing.T) {
	ctx := context.Background()
	dir := Directory{Students: []student.Student{stud("s1", "u1", "c1"), stud("s2", "", "c1")}}
	q := &fakeQuerier{users: map[string]answer{"u1": {records: []Record{rec("f1", "2024-01-01")}}}}
	agg := newAgg(q, "admin", Options{})

	res, err := agg.Load(ctx, session.RoleAdmin, AggregationRequest{StudentID: "s1", CourseID: "c1"}, dir)
	assert.NoError(t, err)
	assert.Equal(t, []string{"f1"}, ids(res.Records))
	if assert.Len(t, q.userCalls, 1) {
		assert.Equal(t, UserQuery{UserID: "u1", CourseID: "c1", Page: Page{Limit: DefaultLimit}}, q.userCalls[0])
	}

	for _, id := range []string{"s2", "unknown"} {
		_, err = agg.Load(ctx, session.RoleAdmin, AggregationRequest{StudentID: id}, dir)
		assert.Equal(t, ErrStudentNotLinked, errors.Cause(err), "Load(%s)", id)
	}
}

type fixedToken string

func (tok fixedToken) Token(context.Context) (string, error) { return string(tok), nil }

func TestAggregator_Load_notFound(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	api := apiclient.New(srv.URL+"/api/v1", http.DefaultClient, fixedToken("tok"), testutil.NewLogger())
	dir := Directory{Students: []student.Student{stud("s1", "u1", "c1")}}

	tests := []struct {
		name        string
		role        session.Role
		opts        Options
		req         AggregationRequest
		wantErr     bool
		wantSkipped int
	}{
		{name: "standard user", role: session.RoleStandardUser, wantErr: true},
		{name: "admin student", role: session.RoleAdmin, req: AggregationRequest{StudentID: "s1"}, wantErr: true},
		{name: "trusted bulk", role: session.RoleAdmin, opts: Options{Mode: BulkTrusted}, wantErr: true},
		{name: "probe falls back and skips", role: session.RoleAdmin, opts: Options{Mode: BulkProbe}, wantSkipped: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newAgg(NewService(api), "u1", tt.opts).Load(ctx, tt.role, tt.req, dir)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				assert.Equal(t, http.StatusNotFound, apiclient.StatusCode(err))
				return
			}
			assert.Equal(t, tt.wantSkipped, res.SkippedPairs)
		})
	}
}

func TestAggregator_Load_bulk(t *testing.T) {
	ctx := context.Background()
	dir := Directory{Students: []student.Student{stud("s1", "u1", "c1", "c2"), stud("s2", "u2", "c1")}}
	pairs := map[string]answer{"s1/c1": {records: []Record{rec("f1", "2024-01-01")}}}

	tests := []struct {
		name          string
		mode          BulkMode
		bulk          answer
		wantSource    Source
		wantIDs       []string
		wantPairCalls int
		wantUserCalls int
		wantErr       bool
	}{
		{
			name:          "probe accepted",
			mode:          BulkProbe,
			bulk:          answer{records: []Record{rec("b1", "2024-01-01"), rec("b2", "2024-02-01")}},
			wantSource:    SourceBulk,
			wantIDs:       []string{"b2", "b1"},
			wantUserCalls: 1,
		},
		{
			name:          "empty probe enumerates",
			mode:          BulkProbe,
			wantSource:    SourceEnumerated,
			wantIDs:       []string{"f1"},
			wantPairCalls: 3,
			wantUserCalls: 1,
		},
		{
			name:          "failed probe enumerates",
			mode:          BulkProbe,
			bulk:          answer{err: statusErr(http.StatusForbidden, "permission denied")},
			wantSource:    SourceEnumerated,
			wantIDs:       []string{"f1"},
			wantPairCalls: 3,
			wantUserCalls: 1,
		},
		{
			name:          "trusted empty probe",
			mode:          BulkTrusted,
			wantSource:    SourceBulk,
			wantIDs:       []string{},
			wantUserCalls: 1,
		},
		{
			name:          "trusted failed probe",
			mode:          BulkTrusted,
			bulk:          answer{err: statusErr(http.StatusInternalServerError, "boom")},
			wantUserCalls: 1,
			wantErr:       true,
		},
		{
			name:          "disabled",
			mode:          BulkDisabled,
			bulk:          answer{records: []Record{rec("b1", "2024-01-01")}},
			wantSource:    SourceEnumerated,
			wantIDs:       []string{"f1"},
			wantPairCalls: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &fakeQuerier{bulk: tt.bulk, pairs: pairs}
			res, err := newAgg(q, "admin", Options{Mode: tt.mode}).Load(ctx, session.RoleAdmin, AggregationRequest{}, dir)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			assert.Len(t, q.userCalls, tt.wantUserCalls)
			assert.Len(t, q.studentCalls, tt.wantPairCalls)
			if tt.wantErr {
				return
			}
			assert.Equal(t, tt.wantSource, res.Source)
			assert.Equal(t, tt.wantIDs, ids(res.Records))
			for _, uq := range q.userCalls {
				assert.Equal(t, "", uq.UserID)
			}
		})
	}
}

func TestAggregator_Load_enumeration(t *testing.T) {
	ctx := context.Background()
	dir := Directory{Students: []student.Student{stud("S1", "u1", "C1", "C2"), stud("S2", "u2", "C1")}}

	t.Run("mixed outcomes", func(t *testing.T) {
		q := &fakeQuerier{pairs: map[string]answer{
			"S1/C1": {records: []Record{rec("F1", "2024-05-01T10:00:00Z")}},
			"S1/C2": {records: []Record{}},
			"S2/C1": {err: statusErr(http.StatusBadRequest, "Student is not enrolled in this course")},
		}}
		res, err := newAgg(q, "admin", Options{}).Load(ctx, session.RoleAdmin, AggregationRequest{}, dir)
		if !assert.NoError(t, err) {
			return
		}
		assert.Equal(t, []string{"F1"}, ids(res.Records))
		assert.Equal(t, SourceEnumerated, res.Source)
		assert.Equal(t, StatusOK, res.Status)
		assert.Equal(t, 2, res.StudentsChecked)
		assert.Equal(t, 1, res.StudentsWithRecords)
		assert.Equal(t, 3, res.PairsProbed)
		assert.Equal(t, 0, res.SkippedPairs)
		assert.ElementsMatch(t, []string{"S1/C1", "S1/C2", "S2/C1"}, q.studentCalls)
	})

	t.Run("course filter", func(t *testing.T) {
		q := &fakeQuerier{pairs: map[string]answer{
			"S1/C2": {records: []Record{rec("F2", "2024-05-01")}},
		}}
		res, err := newAgg(q, "admin", Options{}).Load(ctx, session.RoleAdmin, AggregationRequest{CourseID: "C2"}, dir)
		assert.NoError(t, err)
		assert.Equal(t, []string{"F2"}, ids(res.Records))
		assert.Equal(t, []string{"S1/C2"}, q.studentCalls, "only enrolled students are probed")
		if assert.Len(t, q.userCalls, 1) {
			assert.Equal(t, "C2", q.userCalls[0].CourseID)
		}
	})

	t.Run("failures are skipped", func(t *testing.T) {
		q := &fakeQuerier{pairs: map[string]answer{
			"S1/C1": {err: statusErr(http.StatusInternalServerError, "boom")},
			"S1/C2": {records: []Record{rec("F2", "2024-05-01")}},
			"S2/C1": {err: &apiclient.APIError{Kind: apiclient.KindTransport, Message: "connection refused"}},
		}}
		res, err := newAgg(q, "admin", Options{}).Load(ctx, session.RoleAdmin, AggregationRequest{}, dir)
		assert.NoError(t, err)
		assert.Equal(t, []string{"F2"}, ids(res.Records))
		assert.Equal(t, 2, res.SkippedPairs)
		assert.Len(t, q.studentCalls, 3)
	})

	t.Run("nothing found", func(t *testing.T) {
		q := &fakeQuerier{}
		res, err := newAgg(q, "admin", Options{}).Load(ctx, session.RoleAdmin, AggregationRequest{}, dir)
		assert.NoError(t, err)
		assert.Equal(t, StatusEmpty, res.Status)
		assert.Empty(t, res.Records)
		assert.Equal(t, 2, res.StudentsChecked)
		assert.Equal(t, 0, res.StudentsWithRecords)
	})

	t.Run("concurrent merge is deterministic", func(t *testing.T) {
		var students []student.Student
		pairs := make(map[string]answer)
		for _, s := range []string{"a", "b", "c", "d", "e", "f"} {
			students = append(students, stud(s, "u"+s, "C1", "C2"))
			// same timestamp everywhere: the order is the enumeration order
			pairs[s+"/C1"] = answer{records: []Record{rec(s+"1", "2024-01-01")}}
			pairs[s+"/C2"] = answer{records: []Record{rec(s+"2", "2024-01-01"), rec("shared", "2023-01-01")}}
		}
		q := &fakeQuerier{pairs: pairs}
		res, err := newAgg(q, "admin", Options{Concurrency: 4}).Load(ctx, session.RoleAdmin, AggregationRequest{}, Directory{Students: students})
		assert.NoError(t, err)
		assert.Equal(t, []string{"a1", "a2", "b1", "b2", "c1", "c2", "d1", "d2", "e1", "e2", "f1", "f2", "shared"}, ids(res.Records))
		assert.Len(t, q.studentCalls, 12)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		q := &fakeQuerier{block: make(chan struct{})}
		done := make(chan error, 1)
		go func() {
			_, err := newAgg(q, "admin", Options{Mode: BulkDisabled}).Load(ctx, session.RoleAdmin, AggregationRequest{}, dir)
			done <- err
		}()
		cancel()
		select {
		case err := <-done:
			assert.Equal(t, context.Canceled, err)
		case <-time.After(5 * time.Second):
			t.Fatal("Load() did not return after cancellation")
		}
	})
}

func TestSortRecords(t *testing.T) {
	records := []Record{
		rec("missing1", ""),
		rec("old", "2023-01-01T00:00:00Z"),
		rec("garbage", "yesterday"),
		rec("new", "2024-06-01 08:00:00"),
		rec("tie1", "2024-01-01"),
		rec("tie2", "2024-01-01T00:00:00Z"),
		rec("missing2", ""),
	}
	assert.Equal(t,
		[]string{"new", "tie1", "tie2", "old", "missing1", "garbage", "missing2"},
		ids(SortRecords(records)),
	)
}

func TestDedupe(t *testing.T) {
	records := []Record{{ID: "a", Text: "first"}, {ID: "b"}, {ID: "a", Text: "second"}, {}, {}}
	got := Dedupe(records)
	assert.Equal(t, []string{"a", "b", "", ""}, ids(got))
	assert.Equal(t, "first", got[0].Text)
}

func TestParseBulkMode(t *testing.T) {
	tests := []struct {
		in      string
		want    BulkMode
		wantErr bool
	}{
		{"", BulkProbe, false},
		{"probe", BulkProbe, false},
		{" Trusted ", BulkTrusted, false},
		{"DISABLED", BulkDisabled, false},
		{"always", "", true},
	}
	for _, tt := range tests {
		got, err := ParseBulkMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseBulkMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseBulkMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRatingBand(t *testing.T) {
	tests := []struct {
		r    core.Decimal
		want string
	}{
		{0, BandNone},
		{2.5, BandLow},
		{5, BandMedium},
		{7.9, BandMedium},
		{8, BandHigh},
		{10, BandHigh},
	}
	for _, tt := range tests {
		if got := RatingBand(tt.r); got != tt.want {
			t.Errorf("RatingBand(%v) = %v, want %v", tt.r, got, tt.want)
		}
	}
}
