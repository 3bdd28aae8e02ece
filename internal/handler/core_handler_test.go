package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"Volunteer_Hub/internal/middleware"
	"Volunteer_Hub/internal/model"
	"Volunteer_Hub/internal/repository/mysql"
	"Volunteer_Hub/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// memCore 申请与评价链路共用的内存库。
// 各 store 嵌入对应接口，只实现这两条链路会调用的方法
type memCore struct {
	mu      sync.Mutex
	next    uint64
	users   map[uint64]*model.User
	orgs    map[uint64]*model.Organization
	opps    map[uint64]*model.Opportunity
	apps    map[uint64]*model.Application
	reviews []model.Review
}

func newMemCore() *memCore {
	return &memCore{
		users: map[uint64]*model.User{},
		orgs:  map[uint64]*model.Organization{},
		opps:  map[uint64]*model.Opportunity{},
		apps:  map[uint64]*model.Application{},
	}
}

func (m *memCore) nextID() uint64 {
	m.next++
	return m.next
}

func (m *memCore) addUser(name, role string) service.Caller {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &model.User{ID: m.nextID(), Name: name, Role: role, IsActive: true}
	m.users[u.ID] = u
	return service.Caller{ID: u.ID, Role: role, Name: name}
}

func (m *memCore) addOrganization(name string) (service.Caller, *model.Organization) {
	caller := m.addUser(name, model.RoleOrganization)
	m.mu.Lock()
	defer m.mu.Unlock()
	org := &model.Organization{ID: m.nextID(), UserID: caller.ID, OrganizationName: name}
	m.orgs[org.ID] = org
	return caller, org
}

func (m *memCore) addOpportunity(org *model.Organization, needed int) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := &model.Opportunity{ID: m.nextID(), OrganizationID: org.ID, Title: "Beach cleanup", VolunteersNeeded: needed, IsActive: true}
	m.opps[o.ID] = o
	return o.ID
}

type memOpps struct {
	service.OpportunityStore
	db *memCore
}

func (s memOpps) FindByID(_ context.Context, id uint64) (*model.Opportunity, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	o, ok := s.db.opps[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (s memOpps) TryReserveSlot(_ context.Context, id uint64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	o, ok := s.db.opps[id]
	if !ok || !o.IsActive || o.VolunteersRegistered >= o.VolunteersNeeded {
		return false, nil
	}
	o.VolunteersRegistered++
	return true, nil
}

func (s memOpps) ReleaseSlot(_ context.Context, id uint64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if o, ok := s.db.opps[id]; ok && o.VolunteersRegistered > 0 {
		o.VolunteersRegistered--
	}
	return nil
}

type memApps struct {
	service.ApplicationStore
	db *memCore
}

func (s memApps) Create(_ context.Context, a *model.Application) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a.ID = s.db.nextID()
	cp := *a
	s.db.apps[a.ID] = &cp
	return nil
}

func (s memApps) FindByID(_ context.Context, id uint64) (*model.Application, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a, ok := s.db.apps[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (s memApps) FindByOpportunityAndVolunteer(_ context.Context, oppID, volID uint64) (*model.Application, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, a := range s.db.apps {
		if a.OpportunityID == oppID && a.VolunteerID == volID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s memApps) Transition(_ context.Context, id, oppID uint64, from model.ApplicationStatus, ch mysql.StatusChange, release bool) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a, ok := s.db.apps[id]
	if !ok || a.Status != from {
		return false, nil
	}
	a.Status = ch.To
	if ch.Notes != "" {
		a.ReviewNotes = ch.Notes
	}
	if release {
		s.db.opps[oppID].VolunteersRegistered--
	}
	return true, nil
}

func (s memApps) HasParticipation(_ context.Context, oppID, volID uint64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, a := range s.db.apps {
		if a.OpportunityID == oppID && a.VolunteerID == volID &&
			(a.Status == model.StatusApproved || a.Status == model.StatusCompleted) {
			return true, nil
		}
	}
	return false, nil
}

type memOrgs struct {
	service.OrganizationStore
	db *memCore
}

func (s memOrgs) FindByID(_ context.Context, id uint64) (*model.Organization, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	o, ok := s.db.orgs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

type memUsers struct {
	service.UserStore
	db *memCore
}

func (s memUsers) FindByID(_ context.Context, id uint64) (*model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (s memUsers) UpdateRating(_ context.Context, id uint64, expectCount int64, average float64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok || u.Rating.Count != expectCount {
		return false, nil
	}
	u.Rating = model.Rating{Average: average, Count: expectCount + 1}
	return true, nil
}

type memReviews struct {
	service.ReviewStore
	db *memCore
}

func (s memReviews) Create(_ context.Context, rv *model.Review) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	rv.ID = s.db.nextID()
	s.db.reviews = append(s.db.reviews, *rv)
	return nil
}

func (s memReviews) Exists(_ context.Context, reviewerID, revieweeID, oppID uint64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, rv := range s.db.reviews {
		if rv.ReviewerID == reviewerID && rv.RevieweeID == revieweeID && rv.OpportunityID == oppID {
			return true, nil
		}
	}
	return false, nil
}

type dropNotifier struct{}

func (dropNotifier) Notify(context.Context, service.NotifyRequest) {}

// callerByHeader 按 X-Caller 头切换调用方，代替鉴权中间件
func callerByHeader(callers map[string]service.Caller) gin.HandlerFunc {
	return func(c *gin.Context) {
		if caller, ok := callers[c.GetHeader("X-Caller")]; ok {
			c.Set(middleware.ContextUserIDKey, caller.ID)
			c.Set(middleware.ContextCallerKey, caller)
		}
		c.Next()
	}
}

func requestAs(r http.Handler, who, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Caller", who)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestApplicationAndReviewRoutes(t *testing.T) {
	db := newMemCore()
	orgCaller, org := db.addOrganization("Harbor")
	alice := db.addUser("Alice", model.RoleVolunteer)
	bob := db.addUser("Bob", model.RoleVolunteer)
	single := db.addOpportunity(org, 1)
	roomy := db.addOpportunity(org, 2)
	// 申请 id 按写入顺序分配：alice 先报 single，bob 后报 roomy
	aliceApp, bobApp := db.next+1, db.next+2

	users := memUsers{db: db}
	apps := memApps{db: db}
	appSvc := service.NewApplicationService(apps, memOpps{db: db}, memOrgs{db: db}, dropNotifier{}, zap.NewNop())
	reviewSvc := service.NewReviewService(memReviews{db: db}, users, apps, service.NewRatingAggregator(users), dropNotifier{}, zap.NewNop())
	ah, rh := NewApplicationHandler(appSvc), NewReviewHandler(reviewSvc)

	r := gin.New()
	r.Use(callerByHeader(map[string]service.Caller{"org": orgCaller, "alice": alice, "bob": bob}))
	r.POST("/api/applications", ah.Create)
	r.PUT("/api/applications/:id/status", ah.UpdateStatus)
	r.PUT("/api/applications/:id/withdraw", ah.Withdraw)
	r.POST("/api/reviews", rh.Create)

	apply := func(opp uint64) string { return fmt.Sprintf(`{"opportunity_id":%d,"message":"count me in"}`, opp) }
	review := func(reviewee, opp uint64, typ string) string {
		return fmt.Sprintf(`{"reviewee_id":%d,"opportunity_id":%d,"rating":5,"comment":"great","review_type":%q}`, reviewee, opp, typ)
	}
	statusPath := func(id uint64) string { return fmt.Sprintf("/api/applications/%d/status", id) }
	withdrawPath := func(id uint64) string { return fmt.Sprintf("/api/applications/%d/withdraw", id) }

	// 按顺序执行，后面的用例依赖前面写入的状态
	steps := []struct {
		name   string
		who    string
		method string
		path   string
		body   string
		status int
		msg    string
	}{
		{"apply", "alice", http.MethodPost, "/api/applications", apply(single), http.StatusCreated, ""},
		{"apply to full", "bob", http.MethodPost, "/api/applications", apply(single), http.StatusConflict, "opportunity is full or no longer active"},
		{"apply twice", "alice", http.MethodPost, "/api/applications", apply(single), http.StatusConflict, "you have already applied to this opportunity"},
		{"organization cannot apply", "org", http.MethodPost, "/api/applications", apply(roomy), http.StatusForbidden, "only volunteers can apply to opportunities"},
		{"apply with room", "bob", http.MethodPost, "/api/applications", apply(roomy), http.StatusCreated, ""},
		{"status by volunteer", "bob", http.MethodPut, statusPath(aliceApp), `{"status":"approved"}`, http.StatusForbidden, "not authorized to manage this opportunity"},
		{"status bogus", "org", http.MethodPut, statusPath(aliceApp), `{"status":"completed"}`, http.StatusBadRequest, "invalid status"},
		{"status missing app", "org", http.MethodPut, statusPath(9999), `{"status":"approved"}`, http.StatusNotFound, "application not found"},
		{"approve", "org", http.MethodPut, statusPath(aliceApp), `{"status":"approved","notes":"see you saturday"}`, http.StatusOK, ""},
		{"reject after approve", "org", http.MethodPut, statusPath(aliceApp), `{"status":"rejected"}`, http.StatusConflict, "application is not pending"},
		{"withdraw approved", "alice", http.MethodPut, withdrawPath(aliceApp), "", http.StatusConflict, "application is not pending"},
		{"withdraw someone else's", "alice", http.MethodPut, withdrawPath(bobApp), "", http.StatusForbidden, "not authorized to access this application"},
		{"withdraw", "bob", http.MethodPut, withdrawPath(bobApp), "", http.StatusOK, ""},
		{"withdraw twice", "bob", http.MethodPut, withdrawPath(bobApp), "", http.StatusConflict, "application is not pending"},
		{"review organization", "alice", http.MethodPost, "/api/reviews", review(orgCaller.ID, single, model.ReviewVolunteerToOrg), http.StatusCreated, ""},
		{"review twice", "alice", http.MethodPost, "/api/reviews", review(orgCaller.ID, single, model.ReviewVolunteerToOrg), http.StatusConflict, "you have already reviewed this user"},
		{"review without participation", "bob", http.MethodPost, "/api/reviews", review(orgCaller.ID, roomy, model.ReviewVolunteerToOrg), http.StatusForbidden, "you can only review after participating in this opportunity"},
		{"review wrong type", "org", http.MethodPost, "/api/reviews", review(alice.ID, single, model.ReviewVolunteerToOrg), http.StatusBadRequest, "review type does not match the reviewee role"},
		{"review volunteer", "org", http.MethodPost, "/api/reviews", review(alice.ID, single, model.ReviewOrgToVolunteer), http.StatusCreated, ""},
		{"review missing fields", "org", http.MethodPost, "/api/reviews", `{"reviewee_id":4}`, http.StatusBadRequest, "please provide reviewee_id, rating, and review_type"},
	}
	for _, s := range steps {
		w := requestAs(r, s.who, s.method, s.path, s.body)
		require.Equal(t, s.status, w.Code, "%s: %s", s.name, w.Body.String())
		if s.msg != "" {
			assert.Equal(t, s.msg, msgOf(t, w), s.name)
		}
	}

	assert.Equal(t, 1, db.opps[single].VolunteersRegistered)
	assert.Equal(t, 0, db.opps[roomy].VolunteersRegistered)
	assert.Equal(t, model.StatusApproved, db.apps[aliceApp].Status)
	assert.Equal(t, "see you saturday", db.apps[aliceApp].ReviewNotes)
	assert.Equal(t, model.StatusWithdrawn, db.apps[bobApp].Status)
	assert.Len(t, db.reviews, 2)
	assert.Equal(t, model.Rating{Average: 5, Count: 1}, db.users[orgCaller.ID].Rating)
}

func TestApplicationCreateResponseBody(t *testing.T) {
	db := newMemCore()
	_, org := db.addOrganization("Harbor")
	alice := db.addUser("Alice", model.RoleVolunteer)
	opp := db.addOpportunity(org, 3)

	h := NewApplicationHandler(service.NewApplicationService(memApps{db: db}, memOpps{db: db}, memOrgs{db: db}, dropNotifier{}, zap.NewNop()))
	r := gin.New()
	r.POST("/api/applications", asCaller(alice), h.Create)

	w := request(r, http.MethodPost, "/api/applications", fmt.Sprintf(`{"opportunity_id":%d,"message":"  hi  "}`, opp))
	require.Equal(t, http.StatusCreated, w.Code)
	var app model.Application
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &app))
	assert.Equal(t, model.StatusPending, app.Status)
	assert.Equal(t, alice.ID, app.VolunteerID)
	assert.Equal(t, opp, app.OpportunityID)
	assert.Equal(t, "hi", app.Message)
}

type memAccounts struct{ memUsers }

func (s memAccounts) SetActive(_ context.Context, id uint64, active bool) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if u, ok := s.db.users[id]; ok {
		u.IsActive = active
	}
	return nil
}

// fixedStats 每项计数返回同一个值
type fixedStats struct{ n int64 }

func (f fixedStats) Count(context.Context, mysql.Stat) (int64, error) { return f.n, nil }

func (fixedStats) RecentOpportunities(context.Context, int) ([]model.Opportunity, error) {
	return nil, nil
}

func (fixedStats) RecentUsers(context.Context, int) ([]model.User, error) { return nil, nil }

func TestAdminRoutes(t *testing.T) {
	db := newMemCore()
	root := db.addUser("Root", model.RoleAdmin)
	alice := db.addUser("Alice", model.RoleVolunteer)

	var orgs service.OrganizationDirectory
	svc := service.NewAdminService(memAccounts{memUsers{db: db}}, orgs, memOpps{db: db}, fixedStats{n: 7}, nil, zap.NewNop())
	h := NewAdminHandler(svc)
	r := gin.New()
	g := r.Group("/api/admin", asCaller(root))
	g.GET("/stats", h.Stats)
	g.PUT("/users/:id/status", h.SetUserStatus)

	w := request(r, http.MethodPut, fmt.Sprintf("/api/admin/users/%d/status", alice.ID), `{"is_active":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `false`, jsonField(t, w, "is_active"))
	assert.False(t, db.users[alice.ID].IsActive)

	w = request(r, http.MethodPut, fmt.Sprintf("/api/admin/users/%d/status", root.ID), `{"is_active":false}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "you cannot deactivate your own account", msgOf(t, w))

	w = request(r, http.MethodPut, "/api/admin/users/9999/status", `{"is_active":true}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = request(r, http.MethodGet, "/api/admin/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	var d service.Dashboard
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.EqualValues(t, 7, d.Stats.TotalUsers)
	assert.EqualValues(t, 7, d.Stats.PendingApplications)
	assert.NotNil(t, d.RecentUsers)
}

func jsonField(t *testing.T, w *httptest.ResponseRecorder, key string) string {
	t.Helper()
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return string(body[key])
}
