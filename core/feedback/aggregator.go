package feedback

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/niva/apiclient"
	"github.com/trezcool/niva/core"
	"github.com/trezcool/niva/core/session"
)

var (
	// errors
	ErrNoUserID         = errors.New("user id not found, please log in again")
	ErrStudentNotLinked = errors.New("student is not linked to a user account")
)

type (
	// Querier is the part of the feedback API the aggregator needs.
	Querier interface {
		ByUser(ctx context.Context, uq UserQuery) (List, error)
		ByStudent(ctx context.Context, studentID, courseID string, p Page) (List, error)
	}

	// UserIDSource gives the id of the logged in user.
	UserIDSource interface {
		UserID(ctx context.Context) (string, error)
	}
)

type Options struct {
	Mode        BulkMode
	Concurrency int
	PageSize    int
}

func OptionsFromConfig(conf core.FeedbackConfig) (Options, error) {
	mode, err := ParseBulkMode(conf.BulkMode)
	if err != nil {
		return Options{}, err
	}
	return Options{Mode: mode, Concurrency: conf.Concurrency, PageSize: conf.PageSize}, nil
}

// Aggregator builds a single feedback list for the logged in user or, for admins, for any selection of
// students and courses.
type Aggregator struct {
	q      Querier
	users  UserIDSource
	opts   Options
	logger core.Logger
}

func NewAggregator(q Querier, users UserIDSource, opts Options, logger core.Logger) *Aggregator {
	if opts.Mode == "" {
		opts.Mode = BulkProbe
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultLimit
	}
	return &Aggregator{q: q, users: users, opts: opts, logger: logger}
}

func (agg *Aggregator) page() Page { return Page{Limit: agg.opts.PageSize} }

// Load returns the feedback visible to role, filtered by req for admins.
// Empty conditions reported by the backend ("no feedback found", "not enrolled", no profile) produce an
// empty result, never an error.
func (agg *Aggregator) Load(ctx context.Context, role session.Role, req AggregationRequest, dir Directory) (Result, error) {
	if !role.IsAdmin() {
		return agg.loadOwn(ctx)
	}
	if req.StudentID != "" {
		return agg.loadStudent(ctx, req, dir)
	}
	return agg.loadAll(ctx, req, dir)
}

func (agg *Aggregator) loadOwn(ctx context.Context) (Result, error) {
	userID, err := agg.users.UserID(ctx)
	if err != nil {
		return Result{}, errors.Wrap(err, "reading user id")
	}
	if userID == "" {
		return Result{}, ErrNoUserID
	}
	return agg.byUser(ctx, UserQuery{UserID: userID, Page: agg.page()}, SourceUser)
}

func (agg *Aggregator) loadStudent(ctx context.Context, req AggregationRequest, dir Directory) (Result, error) {
	st, ok := dir.Student(req.StudentID)
	if !ok || st.UserID == "" {
		return Result{}, errors.Wrapf(ErrStudentNotLinked, "student %s", req.StudentID)
	}
	return agg.byUser(ctx, UserQuery{UserID: string(st.UserID), CourseID: req.CourseID, Page: agg.page()}, SourceUser)
}

func (agg *Aggregator) byUser(ctx context.Context, uq UserQuery, src Source) (Result, error) {
	list, err := agg.q.ByUser(ctx, uq)
	if err != nil {
		if !apiclient.IsEmptyResult(err) {
			return Result{}, err
		}
		list = List{}
	}
	return newResult(list.Records, list.TotalCount, src), nil
}

func (agg *Aggregator) loadAll(ctx context.Context, req AggregationRequest, dir Directory) (Result, error) {
	if agg.opts.Mode != BulkDisabled {
		list, err := agg.q.ByUser(ctx, UserQuery{CourseID: req.CourseID, Page: agg.page()})
		switch {
		case err == nil:
		case apiclient.IsEmptyResult(err):
			list = List{}
		case agg.opts.Mode == BulkTrusted || ctx.Err() != nil:
			return Result{}, err
		default:
			agg.logger.Warn("feedback: bulk query failed, checking students one by one", err)
			list = List{}
		}
		if len(list.Records) > 0 || agg.opts.Mode == BulkTrusted {
			return newResult(list.Records, list.TotalCount, SourceBulk), nil
		}
	}
	return agg.enumerate(ctx, req, dir)
}

// pair is a (student, course) enumeration unit.
type pair struct {
	student   int
	studentID string
	courseID  string
}

type pairResult struct {
	records []Record
	skipped bool
}

func pairs(req AggregationRequest, dir Directory) []pair {
	var ps []pair
	for i, st := range dir.Students {
		for _, courseID := range st.CourseIDs() {
			if req.CourseID != "" && courseID != req.CourseID {
				continue
			}
			ps = append(ps, pair{student: i, studentID: string(st.ID), courseID: courseID})
		}
	}
	return ps
}

// enumerate queries every (student, course) pair, with at most opts.Concurrency queries in flight.
// Failed pairs are logged and skipped.
func (agg *Aggregator) enumerate(ctx context.Context, req AggregationRequest, dir Directory) (Result, error) {
	ps := pairs(req, dir)
	results := make([]pairResult, len(ps))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(agg.opts.Concurrency)
	for i := range ps {
		i, p := i, ps[i]
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			list, err := agg.q.ByStudent(gctx, p.studentID, p.courseID, agg.page())
			switch {
			case err == nil:
				results[i].records = list.Records
			case apiclient.IsEmptyFeedback(err):
			case gctx.Err() != nil:
				return gctx.Err()
			default:
				agg.logger.Warn("feedback: skipping student course", err, map[string]interface{}{
					"student_id": p.studentID,
					"course_id":  p.courseID,
				})
				results[i].skipped = true
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var merged []Record
	checked := make(map[int]bool)
	withRecords := make(map[int]bool)
	skipped := 0
	for i, p := range ps {
		checked[p.student] = true
		if results[i].skipped {
			skipped++
		}
		if len(results[i].records) > 0 {
			withRecords[p.student] = true
			merged = append(merged, results[i].records...)
		}
	}

	res := newResult(merged, 0, SourceEnumerated)
	res.StudentsChecked = len(checked)
	res.StudentsWithRecords = len(withRecords)
	res.PairsProbed = len(ps)
	res.SkippedPairs = skipped
	return res, nil
}

// newResult sorts the records; merged sources are deduped first, a single user query is kept as-is.
func newResult(records []Record, total int, src Source) Result {
	if src != SourceUser {
		records = Dedupe(records)
	}
	records = SortRecords(records)
	if total < len(records) {
		total = len(records)
	}
	res := Result{Records: records, TotalCount: total, Source: src, Status: StatusOK}
	if len(records) == 0 {
		res.Status = StatusEmpty
	}
	return res
}

// Dedupe drops the records whose id was already seen, keeping the first occurrence.
func Dedupe(records []Record) []Record {
	seen := make(map[string]bool, len(records))
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if rec.ID != "" {
			if seen[rec.ID] {
				continue
			}
			seen[rec.ID] = true
		}
		out = append(out, rec)
	}
	return out
}

// SortRecords sorts records newest first, in place. Records without a valid timestamp go last;
// ties keep their order.
func SortRecords(records []Record) []Record {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.HasTimestamp() != b.HasTimestamp() {
			return a.HasTimestamp()
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return records
}
