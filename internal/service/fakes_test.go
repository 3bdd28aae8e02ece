package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"Volunteer_Hub/internal/model"
	"Volunteer_Hub/internal/pkg"
	"Volunteer_Hub/internal/repository/mysql"
	"Volunteer_Hub/internal/repository/redis"

	"gorm.io/gorm"
)

// memDB 所有 fake store 共享的内存库，单把锁保证与 MySQL 条件更新相同的原子性
type memDB struct {
	mu     sync.Mutex
	nextID uint64

	users   map[uint64]*model.User
	orgs    map[uint64]*model.Organization
	opps    map[uint64]*model.Opportunity
	apps    map[uint64]*model.Application
	reviews map[uint64]*model.Review
	notes   map[uint64]*model.Notification

	failAppCreate   error
	failNoteCreate  error
	failRelease     error
	failPushed      error
	ratingConflicts int
	failStats       error
	noteCreateBlock chan struct{}
}

func newMemDB() *memDB {
	return &memDB{
		users:   map[uint64]*model.User{},
		orgs:    map[uint64]*model.Organization{},
		opps:    map[uint64]*model.Opportunity{},
		apps:    map[uint64]*model.Application{},
		reviews: map[uint64]*model.Review{},
		notes:   map[uint64]*model.Notification{},
	}
}

func (m *memDB) id() uint64 {
	m.nextID++
	return m.nextID
}

func paginate[T any](list []T, offset, limit int) []T {
	if offset >= len(list) {
		return nil
	}
	end := offset + limit
	if end > len(list) {
		end = len(list)
	}
	return list[offset:end]
}

// ---- opportunities

type fakeOpps struct{ db *memDB }

func (f fakeOpps) Create(_ context.Context, o *model.Opportunity) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	o.ID = f.db.id()
	o.CreatedAt = time.Now()
	cp := *o
	f.db.opps[o.ID] = &cp
	return nil
}

func (f fakeOpps) FindByID(_ context.Context, id uint64) (*model.Opportunity, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	o, ok := f.db.opps[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (f fakeOpps) TryReserveSlot(_ context.Context, id uint64) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	o, ok := f.db.opps[id]
	if !ok || !o.IsActive || o.VolunteersRegistered >= o.VolunteersNeeded {
		return false, nil
	}
	o.VolunteersRegistered++
	return true, nil
}

func (f fakeOpps) ReleaseSlot(_ context.Context, id uint64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.failRelease != nil {
		return f.db.failRelease
	}
	if o, ok := f.db.opps[id]; ok {
		o.VolunteersRegistered--
	}
	return nil
}

func (f fakeOpps) Update(_ context.Context, id uint64, fields map[string]any) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	o, ok := f.db.opps[id]
	if !ok {
		return nil
	}
	for k, v := range fields {
		switch k {
		case "title":
			o.Title = v.(string)
		case "description":
			o.Description = v.(string)
		case "category":
			o.Category = v.(string)
		case "availability":
			o.Availability = v.(string)
		case "volunteers_needed":
			o.VolunteersNeeded = v.(int)
		case "featured":
			o.Featured = v.(bool)
		case "city":
			o.City = v.(string)
		}
	}
	return nil
}

func (f fakeOpps) SoftDelete(_ context.Context, id uint64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if o, ok := f.db.opps[id]; ok {
		o.IsActive = false
	}
	return nil
}

func (f fakeOpps) List(_ context.Context, flt mysql.OpportunityFilter, offset, limit int) ([]model.Opportunity, int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.Opportunity
	for _, o := range f.db.opps {
		switch {
		case flt.OrganizationID != 0 && o.OrganizationID != flt.OrganizationID,
			flt.Category != "" && o.Category != flt.Category,
			flt.Availability != "" && o.Availability != flt.Availability,
			flt.City != "" && o.City != flt.City,
			flt.Search != "" && !strings.Contains(o.Title+" "+o.Description, flt.Search),
			flt.Featured != nil && o.Featured != *flt.Featured,
			flt.IsActive != nil && o.IsActive != *flt.IsActive:
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, offset, limit), int64(len(out)), nil
}

// ---- applications

type fakeApps struct{ db *memDB }

func (f fakeApps) Create(_ context.Context, a *model.Application) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.failAppCreate != nil {
		return f.db.failAppCreate
	}
	for _, x := range f.db.apps {
		if x.OpportunityID == a.OpportunityID && x.VolunteerID == a.VolunteerID {
			return gorm.ErrDuplicatedKey
		}
	}
	a.ID = f.db.id()
	cp := *a
	f.db.apps[a.ID] = &cp
	return nil
}

func (f fakeApps) FindByID(_ context.Context, id uint64) (*model.Application, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	a, ok := f.db.apps[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (f fakeApps) FindByOpportunityAndVolunteer(_ context.Context, oppID, volID uint64) (*model.Application, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, a := range f.db.apps {
		if a.OpportunityID == oppID && a.VolunteerID == volID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f fakeApps) Transition(_ context.Context, id, oppID uint64, from model.ApplicationStatus, ch mysql.StatusChange, release bool) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	a, ok := f.db.apps[id]
	if !ok || a.Status != from {
		return false, nil
	}
	if release && f.db.failRelease != nil {
		return false, f.db.failRelease
	}
	a.Status = ch.To
	at := ch.ReviewedAt
	a.ReviewedAt = &at
	a.ReviewedBy = ch.ReviewedBy
	if ch.Notes != "" {
		a.ReviewNotes = ch.Notes
	}
	if release {
		if o, ok := f.db.opps[oppID]; ok {
			o.VolunteersRegistered--
		}
	}
	return true, nil
}

func (f fakeApps) list(match func(*model.Application) bool, status model.ApplicationStatus, offset, limit int) ([]model.Application, int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.Application
	for _, a := range f.db.apps {
		if match(a) && (status == "" || a.Status == status) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, offset, limit), int64(len(out)), nil
}

func (f fakeApps) ListByVolunteer(_ context.Context, volID uint64, status model.ApplicationStatus, offset, limit int) ([]model.Application, int64, error) {
	return f.list(func(a *model.Application) bool { return a.VolunteerID == volID }, status, offset, limit)
}

func (f fakeApps) ListByOpportunity(_ context.Context, oppID uint64, status model.ApplicationStatus, offset, limit int) ([]model.Application, int64, error) {
	return f.list(func(a *model.Application) bool { return a.OpportunityID == oppID }, status, offset, limit)
}

func (f fakeApps) CountByOpportunity(_ context.Context, oppID uint64) (mysql.ApplicationCounts, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var c mysql.ApplicationCounts
	for _, a := range f.db.apps {
		if a.OpportunityID == oppID {
			c.Total++
			if a.Status == model.StatusPending {
				c.Pending++
			}
		}
	}
	return c, nil
}

func (f fakeApps) HasParticipation(_ context.Context, oppID, volID uint64) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, a := range f.db.apps {
		if a.OpportunityID == oppID && a.VolunteerID == volID &&
			(a.Status == model.StatusApproved || a.Status == model.StatusCompleted) {
			return true, nil
		}
	}
	return false, nil
}

// ---- reviews

type fakeReviews struct{ db *memDB }

func (f fakeReviews) Create(_ context.Context, rv *model.Review) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, x := range f.db.reviews {
		if x.ReviewerID == rv.ReviewerID && x.RevieweeID == rv.RevieweeID && x.OpportunityID == rv.OpportunityID {
			return gorm.ErrDuplicatedKey
		}
	}
	rv.ID = f.db.id()
	cp := *rv
	f.db.reviews[rv.ID] = &cp
	return nil
}

func (f fakeReviews) FindByID(_ context.Context, id uint64) (*model.Review, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	rv, ok := f.db.reviews[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *rv
	return &cp, nil
}

func (f fakeReviews) Exists(_ context.Context, reviewerID, revieweeID, oppID uint64) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, x := range f.db.reviews {
		if x.ReviewerID == reviewerID && x.RevieweeID == revieweeID && x.OpportunityID == oppID {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeReviews) ListByReviewee(_ context.Context, revieweeID uint64, reviewType string, offset, limit int) ([]model.Review, int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.Review
	for _, x := range f.db.reviews {
		if x.RevieweeID == revieweeID && (reviewType == "" || x.ReviewType == reviewType) {
			out = append(out, *x)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, offset, limit), int64(len(out)), nil
}

func (f fakeReviews) AggregateByReviewee(_ context.Context, revieweeID uint64) (mysql.RatingAggregate, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var sum, n int64
	for _, x := range f.db.reviews {
		if x.RevieweeID == revieweeID {
			sum += int64(x.Rating)
			n++
		}
	}
	if n == 0 {
		return mysql.RatingAggregate{}, nil
	}
	return mysql.RatingAggregate{Average: float64(sum) / float64(n), Count: n}, nil
}

// ---- users / organizations

type fakeUsers struct{ db *memDB }

func (f fakeUsers) createLocked(u *model.User) error {
	for _, x := range f.db.users {
		if x.Email == u.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	u.ID = f.db.id()
	cp := *u
	f.db.users[u.ID] = &cp
	return nil
}

func (f fakeUsers) Create(_ context.Context, u *model.User) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	return f.createLocked(u)
}

func (f fakeUsers) CreateWithOrganization(_ context.Context, u *model.User, org *model.Organization) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if err := f.createLocked(u); err != nil {
		return err
	}
	org.UserID = u.ID
	org.ID = f.db.id()
	cp := *org
	f.db.orgs[org.ID] = &cp
	return nil
}

func (f fakeUsers) FindByID(_ context.Context, id uint64) (*model.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (f fakeUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, u := range f.db.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f fakeUsers) UpdatePassword(_ context.Context, id uint64, hash string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if u, ok := f.db.users[id]; ok {
		u.Password = hash
	}
	return nil
}

func (f fakeUsers) UpdateProfile(_ context.Context, id uint64, fields map[string]any) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return nil
	}
	for k, v := range fields {
		switch k {
		case "name":
			u.Name = v.(string)
		case "phone":
			u.Phone = v.(string)
		case "bio":
			u.Bio = v.(string)
		}
	}
	return nil
}

func (f fakeUsers) UpdateRating(_ context.Context, id uint64, expectCount int64, average float64) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.ratingConflicts > 0 {
		f.db.ratingConflicts--
		return false, nil
	}
	u, ok := f.db.users[id]
	if !ok || u.Rating.Count != expectCount {
		return false, nil
	}
	u.Rating.Average = average
	u.Rating.Count++
	return true, nil
}

func (f fakeUsers) ReconcileList(_ context.Context, batchSize int, lastID uint64) ([]mysql.RatingRow, uint64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var ids []uint64
	for id := range f.db.users {
		if id > lastID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	ids = paginate(ids, 0, batchSize)
	if len(ids) == 0 {
		return nil, lastID, nil
	}
	rows := make([]mysql.RatingRow, 0, len(ids))
	for _, id := range ids {
		u := f.db.users[id]
		rows = append(rows, mysql.RatingRow{ID: id, RatingAverage: u.Rating.Average, RatingCount: u.Rating.Count})
	}
	return rows, ids[len(ids)-1], nil
}

func (f fakeUsers) SetRating(_ context.Context, id uint64, expectCount int64, average float64, count int64) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok || u.Rating.Count != expectCount {
		return false, nil
	}
	u.Rating = model.Rating{Average: average, Count: count}
	return true, nil
}

func (f fakeUsers) SetActive(_ context.Context, id uint64, active bool) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if u, ok := f.db.users[id]; ok {
		u.IsActive = active
	}
	return nil
}

type fakeOrgs struct{ db *memDB }

func (f fakeOrgs) FindByID(_ context.Context, id uint64) (*model.Organization, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	o, ok := f.db.orgs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (f fakeOrgs) FindByUserID(_ context.Context, userID uint64) (*model.Organization, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, o := range f.db.orgs {
		if o.UserID == userID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f fakeOrgs) SetVerified(_ context.Context, id uint64, verified bool) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if o, ok := f.db.orgs[id]; ok {
		o.Verified = verified
	}
	return nil
}

func (f fakeOrgs) List(_ context.Context, flt mysql.OrganizationFilter, offset, limit int) ([]model.Organization, int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.Organization
	for _, o := range f.db.orgs {
		if flt.Verified != nil && o.Verified != *flt.Verified {
			continue
		}
		if flt.Search != "" && !strings.Contains(o.OrganizationName, flt.Search) && !strings.Contains(o.Description, flt.Search) {
			continue
		}
		cp := *o
		if u, ok := f.db.users[o.UserID]; ok {
			uc := *u
			cp.User = &uc
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, offset, limit), int64(len(out)), nil
}

// fakeStats 直接数 memDB
type fakeStats struct{ db *memDB }

func (f fakeStats) Count(_ context.Context, stat mysql.Stat) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.failStats != nil {
		return 0, f.db.failStats
	}
	var n int64
	switch stat {
	case mysql.StatUsers:
		n = int64(len(f.db.users))
	case mysql.StatVolunteers, mysql.StatOrganizations:
		role := model.RoleVolunteer
		if stat == mysql.StatOrganizations {
			role = model.RoleOrganization
		}
		for _, u := range f.db.users {
			if u.Role == role {
				n++
			}
		}
	case mysql.StatOpportunities:
		n = int64(len(f.db.opps))
	case mysql.StatActiveOpportunities:
		for _, o := range f.db.opps {
			if o.IsActive {
				n++
			}
		}
	case mysql.StatApplications:
		n = int64(len(f.db.apps))
	case mysql.StatPendingApplications:
		for _, a := range f.db.apps {
			if a.Status == model.StatusPending {
				n++
			}
		}
	case mysql.StatReviews:
		n = int64(len(f.db.reviews))
	default:
		return 0, errors.New("unknown stat")
	}
	return n, nil
}

func (f fakeStats) RecentOpportunities(_ context.Context, n int) ([]model.Opportunity, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.Opportunity
	for _, o := range f.db.opps {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, 0, n), nil
}

func (f fakeStats) RecentUsers(_ context.Context, n int) ([]model.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.User
	for _, u := range f.db.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, 0, n), nil
}

// ---- notifications

type fakeNotes struct{ db *memDB }

func (f fakeNotes) Create(_ context.Context, n *model.Notification) error {
	if ch := f.db.noteCreateBlock; ch != nil {
		<-ch
	}
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.failNoteCreate != nil {
		return f.db.failNoteCreate
	}
	n.ID = f.db.id()
	n.CreatedAt = time.Now()
	cp := *n
	f.db.notes[n.ID] = &cp
	return nil
}

func (f fakeNotes) FindByID(_ context.Context, id uint64) (*model.Notification, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	n, ok := f.db.notes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *n
	return &cp, nil
}

func (f fakeNotes) List(_ context.Context, userID uint64, flt mysql.NotificationFilter, offset, limit int) ([]model.Notification, int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.Notification
	for _, n := range f.db.notes {
		if n.UserID != userID || (flt.UnreadOnly && n.IsRead) || (flt.Type != "" && n.Type != flt.Type) {
			continue
		}
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, offset, limit), int64(len(out)), nil
}

func (f fakeNotes) CountUnread(_ context.Context, userID uint64) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var c int64
	for _, n := range f.db.notes {
		if n.UserID == userID && !n.IsRead {
			c++
		}
	}
	return c, nil
}

func (f fakeNotes) MarkRead(_ context.Context, id uint64, at time.Time) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if n, ok := f.db.notes[id]; ok && !n.IsRead {
		n.IsRead = true
		n.ReadAt = &at
	}
	return nil
}

func (f fakeNotes) MarkAllRead(_ context.Context, userID uint64, at time.Time) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var c int64
	for _, n := range f.db.notes {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &at
			c++
		}
	}
	return c, nil
}

func (f fakeNotes) Delete(_ context.Context, id uint64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	delete(f.db.notes, id)
	return nil
}

func (f fakeNotes) ListUnpushed(_ context.Context, batchSize, maxRetry int) ([]model.Notification, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.Notification
	for _, n := range f.db.notes {
		if n.PushStatus != model.PushSent && n.PushRetry < maxRetry {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, 0, batchSize), nil
}

func (f fakeNotes) MarkPushed(_ context.Context, id uint64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.failPushed != nil {
		return f.db.failPushed
	}
	if n, ok := f.db.notes[id]; ok {
		n.PushStatus = model.PushSent
	}
	return nil
}

func (f fakeNotes) MarkPushFailed(_ context.Context, id uint64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if n, ok := f.db.notes[id]; ok {
		n.PushStatus = model.PushFailed
		n.PushRetry++
	}
	return nil
}

// ---- redis 侧

type fakeCache struct {
	mu          sync.Mutex
	vals        map[uint64]int64
	invalidated []uint64
	getErr      error
}

func newFakeCache() *fakeCache { return &fakeCache{vals: map[uint64]int64{}} }

func (c *fakeCache) Get(_ context.Context, userID uint64) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return 0, false, c.getErr
	}
	v, ok := c.vals[userID]
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, userID uint64, count int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals[userID] = count
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, userID uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.vals, userID)
	c.invalidated = append(c.invalidated, userID)
	return nil
}

type fakeTokens struct {
	mu       sync.Mutex
	tokens   map[uint64]string
	extended int
}

func newFakeTokens() *fakeTokens { return &fakeTokens{tokens: map[uint64]string{}} }

func (t *fakeTokens) Save(_ context.Context, userID uint64, token string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tokens[userID] = token
	return nil
}

func (t *fakeTokens) Get(_ context.Context, userID uint64) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tok, ok := t.tokens[userID]
	if !ok {
		return "", redis.ErrTokenNotFound
	}
	return tok, nil
}

func (t *fakeTokens) Extend(_ context.Context, _ uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.extended++
	return nil
}

func (t *fakeTokens) Delete(_ context.Context, userID uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.tokens, userID)
	return nil
}

type fakeLock struct {
	mu     sync.Mutex
	holder map[string]string
}

func newFakeLock() *fakeLock { return &fakeLock{holder: map[string]string{}} }

func (l *fakeLock) Acquire(_ context.Context, name, token string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.holder[name]; ok {
		return false, nil
	}
	l.holder[name] = token
	return true, nil
}

func (l *fakeLock) Release(_ context.Context, name, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holder[name] == token {
		delete(l.holder, name)
	}
	return nil
}

type published struct {
	key   string
	value any
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	fail error
}

func (p *fakePublisher) Publish(_ context.Context, key string, value any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.msgs = append(p.msgs, published{key: key, value: value})
	return nil
}

type sentMail struct{ to, subject, body string }

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail error
}

func (m *fakeMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// recordingNotifier 记录同步投递的通知
type recordingNotifier struct {
	mu   sync.Mutex
	reqs []NotifyRequest
}

func (r *recordingNotifier) Notify(_ context.Context, req NotifyRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
}

func (r *recordingNotifier) all() []NotifyRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]NotifyRequest(nil), r.reqs...)
}

var (
	_ OpportunityStore      = fakeOpps{}
	_ ApplicationStore      = fakeApps{}
	_ ReviewStore           = fakeReviews{}
	_ AccountStore          = fakeUsers{}
	_ OrganizationDirectory = fakeOrgs{}
	_ StatsStore            = fakeStats{}
	_ NotificationStore     = fakeNotes{}
	_ UnreadCache           = (*fakeCache)(nil)
	_ TokenStore            = (*fakeTokens)(nil)
	_ Locker                = (*fakeLock)(nil)
	_ Publisher             = (*fakePublisher)(nil)
	_ pkg.Mailer            = (*fakeMailer)(nil)
)

var errBoom = errors.New("boom")

// ---- 常用数据

type world struct {
	db       *memDB
	opps     fakeOpps
	apps     fakeApps
	reviews  fakeReviews
	users    fakeUsers
	orgs     fakeOrgs
	notes    fakeNotes
	notifier *recordingNotifier
}

func newWorld() *world {
	db := newMemDB()
	return &world{
		db: db, opps: fakeOpps{db}, apps: fakeApps{db}, reviews: fakeReviews{db},
		users: fakeUsers{db}, orgs: fakeOrgs{db}, notes: fakeNotes{db},
		notifier: &recordingNotifier{},
	}
}

func (w *world) addUser(name, role string) Caller {
	u := &model.User{Name: name, Email: strings.ToLower(name) + "@example.org", Password: "x", Role: role, IsActive: true}
	if err := w.users.Create(context.Background(), u); err != nil {
		panic(err)
	}
	return Caller{ID: u.ID, Role: role, Name: name}
}

// addOrganization 组织账号 + 组织资料
func (w *world) addOrganization(name string) (Caller, *model.Organization) {
	u := &model.User{Name: name, Email: strings.ToLower(name) + "@org.example", Password: "x", Role: model.RoleOrganization, IsActive: true}
	org := &model.Organization{OrganizationName: name}
	if err := w.users.CreateWithOrganization(context.Background(), u, org); err != nil {
		panic(err)
	}
	return Caller{ID: u.ID, Role: model.RoleOrganization, Name: name}, org
}

func (w *world) addOpportunity(org *model.Organization, needed int) *model.Opportunity {
	o := &model.Opportunity{
		OrganizationID:   org.ID,
		Title:            "Beach cleanup",
		Description:      "Pick up litter",
		Category:         "environment",
		Availability:     model.AvailabilityWeekends,
		VolunteersNeeded: needed,
		IsActive:         true,
	}
	if err := w.opps.Create(context.Background(), o); err != nil {
		panic(err)
	}
	return o
}

// setRating 直接改库里的评分，模拟历史数据
func (w *world) setRating(id uint64, average float64, count int64) {
	w.db.mu.Lock()
	defer w.db.mu.Unlock()
	w.db.users[id].Rating = model.Rating{Average: average, Count: count}
}

func (w *world) registered(id uint64) int {
	w.db.mu.Lock()
	defer w.db.mu.Unlock()
	return w.db.opps[id].VolunteersRegistered
}
