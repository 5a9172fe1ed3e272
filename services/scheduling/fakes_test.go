package scheduling

import (
	"context"
	"sort"
	"sync"
	"time"

	schedulingRepo "glowbook/database/repository/scheduling"
	"glowbook/models"
)

// fakeState is the whole in-memory world, copyable for transaction rollback.
type fakeState struct {
	shops         map[string]models.Shop
	shopHours     []models.ShopHours
	services      map[string]models.Service
	serviceHours  []models.ServiceAvailability
	exceptions    []models.ServiceException
	specialists   map[string]models.Specialist
	workingHours  []models.SpecialistWorkingHours
	links         []models.SpecialistService
	appointments  map[string]models.Appointment
	allocations   []models.AppointmentResource
	resources     map[string]models.Resource
	resourceAvail []models.ResourceAvailability
	serviceRes    []models.ServiceResource
	dependencies  []models.ServiceDependency
	packages      map[string]models.Package
	packageSvcs   []models.PackageService
}

func newFakeState() *fakeState {
	return &fakeState{
		shops:        map[string]models.Shop{},
		services:     map[string]models.Service{},
		specialists:  map[string]models.Specialist{},
		appointments: map[string]models.Appointment{},
		resources:    map[string]models.Resource{},
		packages:     map[string]models.Package{},
	}
}

func (s *fakeState) clone() *fakeState {
	c := &fakeState{
		shops:         make(map[string]models.Shop, len(s.shops)),
		shopHours:     append([]models.ShopHours(nil), s.shopHours...),
		services:      make(map[string]models.Service, len(s.services)),
		serviceHours:  append([]models.ServiceAvailability(nil), s.serviceHours...),
		exceptions:    append([]models.ServiceException(nil), s.exceptions...),
		specialists:   make(map[string]models.Specialist, len(s.specialists)),
		workingHours:  append([]models.SpecialistWorkingHours(nil), s.workingHours...),
		links:         append([]models.SpecialistService(nil), s.links...),
		appointments:  make(map[string]models.Appointment, len(s.appointments)),
		allocations:   append([]models.AppointmentResource(nil), s.allocations...),
		resources:     make(map[string]models.Resource, len(s.resources)),
		resourceAvail: append([]models.ResourceAvailability(nil), s.resourceAvail...),
		serviceRes:    append([]models.ServiceResource(nil), s.serviceRes...),
		dependencies:  append([]models.ServiceDependency(nil), s.dependencies...),
		packages:      make(map[string]models.Package, len(s.packages)),
		packageSvcs:   append([]models.PackageService(nil), s.packageSvcs...),
	}
	for k, v := range s.shops {
		c.shops[k] = v
	}
	for k, v := range s.services {
		c.services[k] = v
	}
	for k, v := range s.specialists {
		c.specialists[k] = v
	}
	for k, v := range s.appointments {
		c.appointments[k] = v
	}
	for k, v := range s.resources {
		c.resources[k] = v
	}
	for k, v := range s.packages {
		c.packages[k] = v
	}
	return c
}

// fakeRepo is an in-memory SchedulingRepository. Transactions snapshot the
// state at BeginTx and restore it on rollback or failed commit; queued commit
// errors drive the retry paths.
type fakeRepo struct {
	mu    sync.Mutex
	state *fakeState

	commitErrs []error
	commits    int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{state: newFakeState()}
}

type fakeTx struct {
	repo *fakeRepo
	snap *fakeState
	ctx  context.Context
	done bool
}

func (t *fakeTx) Context() context.Context { return t.ctx }

func (t *fakeTx) Commit(ctx context.Context) error {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	if t.done {
		return nil
	}
	t.done = true
	t.repo.commits++
	if len(t.repo.commitErrs) > 0 {
		err := t.repo.commitErrs[0]
		t.repo.commitErrs = t.repo.commitErrs[1:]
		if err != nil {
			t.repo.state = t.snap
			return err
		}
	}
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	if t.done {
		return nil
	}
	t.done = true
	t.repo.state = t.snap
	return nil
}

func (r *fakeRepo) BeginTx(ctx context.Context) (schedulingRepo.Tx, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &fakeTx{repo: r, snap: r.state.clone(), ctx: ctx}, nil
}

func (r *fakeRepo) GetShop(ctx context.Context, id string) (*models.Shop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	shop, ok := r.state.shops[id]
	if !ok {
		return nil, schedulingRepo.ErrNotFound
	}
	return &shop, nil
}

func (r *fakeRepo) ListShops(ctx context.Context) ([]models.Shop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Shop
	for _, s := range r.state.shops {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRepo) GetShopHours(ctx context.Context, shopID string, weekday int) (*models.ShopHours, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.state.shopHours {
		if h.ShopID == shopID && h.Weekday == weekday {
			hours := h
			return &hours, nil
		}
	}
	return nil, schedulingRepo.ErrNotFound
}

func (r *fakeRepo) GetService(ctx context.Context, id string) (*models.Service, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	svc, ok := r.state.services[id]
	if !ok {
		return nil, schedulingRepo.ErrNotFound
	}
	return &svc, nil
}

func (r *fakeRepo) GetServiceHours(ctx context.Context, serviceID string, weekday int) (*models.ServiceAvailability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.state.serviceHours {
		if h.ServiceID == serviceID && h.Weekday == weekday {
			hours := h
			return &hours, nil
		}
	}
	return nil, schedulingRepo.ErrNotFound
}

func (r *fakeRepo) GetServiceException(ctx context.Context, serviceID, date string) (*models.ServiceException, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.state.exceptions {
		if e.ServiceID == serviceID && e.Date == date {
			exc := e
			return &exc, nil
		}
	}
	return nil, schedulingRepo.ErrNotFound
}

func (r *fakeRepo) GetSpecialist(ctx context.Context, id string) (*models.Specialist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sp, ok := r.state.specialists[id]
	if !ok {
		return nil, schedulingRepo.ErrNotFound
	}
	return &sp, nil
}

func (r *fakeRepo) GetSpecialistLinks(ctx context.Context, serviceID string) ([]models.SpecialistService, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.SpecialistService
	for _, l := range r.state.links {
		if l.ServiceID == serviceID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetSpecialistLink(ctx context.Context, specialistID, serviceID string) (*models.SpecialistService, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.state.links {
		if l.SpecialistID == specialistID && l.ServiceID == serviceID {
			link := l
			return &link, nil
		}
	}
	return nil, schedulingRepo.ErrNotFound
}

func (r *fakeRepo) GetSpecialistWorkingHours(ctx context.Context, specialistID string, weekday int) (*models.SpecialistWorkingHours, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.state.workingHours {
		if h.SpecialistID == specialistID && h.Weekday == weekday {
			hours := h
			return &hours, nil
		}
	}
	return nil, schedulingRepo.ErrNotFound
}

func (r *fakeRepo) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	appt, ok := r.state.appointments[id]
	if !ok {
		return nil, schedulingRepo.ErrNotFound
	}
	return &appt, nil
}

func (r *fakeRepo) GetAppointmentsForSpecialist(ctx context.Context, specialistID string, from, to time.Time, statuses []string) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Appointment
	for _, a := range r.state.appointments {
		if a.SpecialistID == specialistID && inStatuses(a.Status, statuses) &&
			a.Start.Before(to) && a.End.After(from) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (r *fakeRepo) CountAppointmentsForServiceAt(ctx context.Context, serviceID string, at time.Time, statuses []string, excludeID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.state.appointments {
		if a.ServiceID == serviceID && a.ID != excludeID && inStatuses(a.Status, statuses) &&
			!a.Start.After(at) && a.End.After(at) {
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) GetCompletedAppointments(ctx context.Context, customerID, shopID, serviceID string, endingBefore time.Time) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Appointment
	for _, a := range r.state.appointments {
		if a.CustomerID == customerID && a.ShopID == shopID && a.ServiceID == serviceID &&
			a.Status == models.AppointmentStatusCompleted && a.End.Before(endingBefore) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeRepo) CountAppointmentsForShopInRange(ctx context.Context, shopID string, from, to time.Time, statuses []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.state.appointments {
		if a.ShopID == shopID && inStatuses(a.Status, statuses) &&
			!a.Start.Before(from) && a.Start.Before(to) {
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) CountAppointmentsForSpecialistInRange(ctx context.Context, specialistID string, from, to time.Time, statuses []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.state.appointments {
		if a.SpecialistID == specialistID && inStatuses(a.Status, statuses) &&
			!a.Start.Before(from) && a.Start.Before(to) {
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) CountAppointmentsForPackage(ctx context.Context, packageID string, statuses []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.state.appointments {
		if a.PackageID == packageID && inStatuses(a.Status, statuses) {
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) CountAppointmentsForLink(ctx context.Context, specialistID, serviceID string, statuses []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.state.appointments {
		if a.SpecialistID == specialistID && a.ServiceID == serviceID && inStatuses(a.Status, statuses) {
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) GetResource(ctx context.Context, id string) (*models.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.state.resources[id]
	if !ok {
		return nil, schedulingRepo.ErrNotFound
	}
	return &res, nil
}

func (r *fakeRepo) GetResourcesByType(ctx context.Context, shopID, resourceType string) ([]models.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Resource
	for _, res := range r.state.resources {
		if res.ShopID == shopID && res.Type == resourceType {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRepo) GetServiceResources(ctx context.Context, serviceID string) ([]models.ServiceResource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ServiceResource
	for _, sr := range r.state.serviceRes {
		if sr.ServiceID == serviceID {
			out = append(out, sr)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetResourceAvailability(ctx context.Context, resourceID string, weekday int) ([]models.ResourceAvailability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ResourceAvailability
	for _, ra := range r.state.resourceAvail {
		if ra.ResourceID == resourceID && ra.Weekday == weekday {
			out = append(out, ra)
		}
	}
	return out, nil
}

func (r *fakeRepo) HasResourceAvailability(ctx context.Context, resourceID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ra := range r.state.resourceAvail {
		if ra.ResourceID == resourceID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) GetResourceAllocations(ctx context.Context, resourceID string, from, to time.Time, statuses []string) ([]models.AppointmentResource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.AppointmentResource
	for _, a := range r.state.allocations {
		if a.ResourceID != resourceID || !a.Start.Before(to) || !a.End.After(from) {
			continue
		}
		owner, ok := r.state.appointments[a.AppointmentID]
		if ok && inStatuses(owner.Status, statuses) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetAppointmentResources(ctx context.Context, appointmentID string) ([]models.AppointmentResource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.AppointmentResource
	for _, a := range r.state.allocations {
		if a.AppointmentID == appointmentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetServiceDependencies(ctx context.Context, serviceID, depType string) ([]models.ServiceDependency, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ServiceDependency
	for _, d := range r.state.dependencies {
		if d.DependentID == serviceID && d.Type == depType {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetPackage(ctx context.Context, id string) (*models.Package, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pkg, ok := r.state.packages[id]
	if !ok {
		return nil, schedulingRepo.ErrNotFound
	}
	return &pkg, nil
}

func (r *fakeRepo) GetPackageServices(ctx context.Context, packageID string) ([]models.PackageService, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.PackageService
	for _, ps := range r.state.packageSvcs {
		if ps.PackageID == packageID {
			out = append(out, ps)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *fakeRepo) ListPackages(ctx context.Context, shopID string) ([]models.Package, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Package
	for _, p := range r.state.packages {
		if shopID == "" || p.ShopID == shopID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRepo) ListSpecialistLinks(ctx context.Context, shopID string) ([]models.SpecialistService, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.SpecialistService
	for _, l := range r.state.links {
		if shopID == "" {
			out = append(out, l)
			continue
		}
		sp, ok := r.state.specialists[l.SpecialistID]
		if ok && sp.ShopID == shopID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeRepo) InsertAppointment(ctx context.Context, appt *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.appointments[appt.ID] = *appt
	return nil
}

func (r *fakeRepo) UpdateAppointment(ctx context.Context, appt *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.state.appointments[appt.ID]; !ok {
		return schedulingRepo.ErrNotFound
	}
	r.state.appointments[appt.ID] = *appt
	return nil
}

func (r *fakeRepo) UpdateAppointmentStatus(ctx context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	appt, ok := r.state.appointments[id]
	if !ok {
		return schedulingRepo.ErrNotFound
	}
	appt.Status = status
	r.state.appointments[id] = appt
	return nil
}

func (r *fakeRepo) InsertAppointmentResource(ctx context.Context, alloc *models.AppointmentResource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.allocations = append(r.state.allocations, *alloc)
	return nil
}

func (r *fakeRepo) DeleteAppointmentResources(ctx context.Context, appointmentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.state.allocations[:0]
	for _, a := range r.state.allocations {
		if a.AppointmentID != appointmentID {
			out = append(out, a)
		}
	}
	r.state.allocations = out
	return nil
}

func (r *fakeRepo) IncrementPackageCounter(ctx context.Context, packageID string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	pkg, ok := r.state.packages[packageID]
	if !ok {
		return schedulingRepo.ErrNotFound
	}
	pkg.CurrentPurchases += delta
	r.state.packages[packageID] = pkg
	return nil
}

func (r *fakeRepo) IncrementSpecialistBookingCount(ctx context.Context, specialistID, serviceID string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.state.links {
		if r.state.links[i].SpecialistID == specialistID && r.state.links[i].ServiceID == serviceID {
			r.state.links[i].BookingCount += delta
			return nil
		}
	}
	return schedulingRepo.ErrNotFound
}

func (r *fakeRepo) SetPackageCounter(ctx context.Context, packageID string, value int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	pkg, ok := r.state.packages[packageID]
	if !ok {
		return schedulingRepo.ErrNotFound
	}
	pkg.CurrentPurchases = value
	r.state.packages[packageID] = pkg
	return nil
}

func (r *fakeRepo) SetSpecialistBookingCount(ctx context.Context, specialistID, serviceID string, value int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.state.links {
		if r.state.links[i].SpecialistID == specialistID && r.state.links[i].ServiceID == serviceID {
			r.state.links[i].BookingCount = value
			return nil
		}
	}
	return schedulingRepo.ErrNotFound
}

func inStatuses(status string, statuses []string) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// fixedClock pins time for deterministic tests.
type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

// mapCache is an in-memory Cache recording set counts.
type mapCache struct {
	mu   sync.Mutex
	data map[string]string
	sets int
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string]string{}}
}

func (c *mapCache) Get(ctx context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *mapCache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.sets++
}

// sentNotification records one Notify or ScheduleReminder call.
type sentNotification struct {
	UserID string
	Kind   string
	Data   map[string]string
	FireAt time.Time
}

type recordingNotifier struct {
	mu        sync.Mutex
	sent      []sentNotification
	reminders []sentNotification
}

func (n *recordingNotifier) Notify(ctx context.Context, userID, kind string, data map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Kind: kind, Data: data})
	return nil
}

func (n *recordingNotifier) ScheduleReminder(ctx context.Context, payload models.NotifyPayload, fireAt time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reminders = append(n.reminders, sentNotification{UserID: payload.UserID, Kind: payload.Kind, Data: payload.Data, FireAt: fireAt})
	return nil
}

// stubPredictor returns canned demand and ratio values.
type stubPredictor struct {
	demand map[string]int
	ratios map[string]float64
}

func (p *stubPredictor) PredictDailyDemand(ctx context.Context, shopID string, dates []string) (map[string]int, error) {
	out := make(map[string]int, len(dates))
	for _, d := range dates {
		out[d] = p.demand[d]
	}
	return out, nil
}

func (p *stubPredictor) SpecialistAllocationRatio(ctx context.Context, specialistID, shopID string) (float64, error) {
	if r, ok := p.ratios[specialistID]; ok {
		return r, nil
	}
	return 0.2, nil
}

// fixture is the standard single-shop world most tests start from: one shop
// open 09:00-17:00 all week, one 30-minute service with 30-minute
// granularity, one primary specialist working shop hours.
type fixture struct {
	repo  *fakeRepo
	clock fixedClock
	cache *mapCache
}

const (
	fxShop       = "shop-1"
	fxService    = "svc-cut"
	fxSpecialist = "sp-1"
	fxCustomer   = "cust-1"
)

// fxDate is a Tuesday; fxNow is the Monday morning before it.
const fxDate = "2026-06-02"

var fxNow = time.Date(2026, 6, 1, 8, 0, 0, 0, time.Local)

func newFixture() *fixture {
	f := &fixture{
		repo:  newFakeRepo(),
		clock: fixedClock{t: fxNow},
		cache: newMapCache(),
	}
	st := f.repo.state
	st.shops[fxShop] = models.Shop{ID: fxShop, Name: "Glow Studio", Timezone: "Local"}
	for wd := 0; wd < 7; wd++ {
		st.shopHours = append(st.shopHours, models.ShopHours{ShopID: fxShop, Weekday: wd, From: 9 * 60, To: 17 * 60})
	}
	st.services[fxService] = models.Service{
		ID:              fxService,
		ShopID:          fxShop,
		Name:            "Haircut",
		Duration:        30,
		SlotGranularity: 30,
		Status:          models.ServiceStatusActive,
	}
	st.specialists[fxSpecialist] = models.Specialist{ID: fxSpecialist, ShopID: fxShop, Name: "Dana", IsActive: true}
	for wd := 0; wd < 7; wd++ {
		st.workingHours = append(st.workingHours, models.SpecialistWorkingHours{
			SpecialistID: fxSpecialist, Weekday: wd, From: 9 * 60, To: 17 * 60,
		})
	}
	st.links = append(st.links, models.SpecialistService{
		SpecialistID: fxSpecialist, ServiceID: fxService, IsPrimary: true,
	})
	return f
}

func (f *fixture) engine() *DefaultAvailabilityEngine {
	return &DefaultAvailabilityEngine{Repo: f.repo, Cache: f.cache, Clock: f.clock}
}

func (f *fixture) detector() *DefaultConflictDetector {
	return &DefaultConflictDetector{Repo: f.repo}
}

func (f *fixture) buffers() *DefaultBufferManager {
	return &DefaultBufferManager{Repo: f.repo, Clock: f.clock}
}

func (f *fixture) orchestrator(notifier *recordingNotifier, predictor *stubPredictor) *DefaultSchedulingOrchestrator {
	o := &DefaultSchedulingOrchestrator{
		Repo:         f.repo,
		Availability: f.engine(),
		Conflicts:    f.detector(),
		Buffers:      f.buffers(),
		Clock:        f.clock,
	}
	if notifier != nil {
		o.Notifier = notifier
	}
	if predictor != nil {
		o.Predictor = predictor
	}
	return o
}

// updateService mutates the fixture service in place.
func (f *fixture) updateService(mutate func(svc *models.Service)) {
	svc := f.repo.state.services[fxService]
	mutate(&svc)
	f.repo.state.services[fxService] = svc
}

// addAppointment seeds a live appointment on the fixture specialist.
func (f *fixture) addAppointment(id string, start, end time.Time, status string) models.Appointment {
	appt := models.Appointment{
		ID:           id,
		ShopID:       fxShop,
		ServiceID:    fxService,
		SpecialistID: fxSpecialist,
		CustomerID:   fxCustomer,
		Date:         start.Format(models.DateLayout),
		Start:        start,
		End:          end,
		Status:       status,
	}
	f.repo.state.appointments[id] = appt
	return appt
}

// at anchors a clock time on the fixture date.
func at(date string, hour, min int) time.Time {
	day, _ := models.ParseDate(date, time.Local)
	return models.AtMinute(day, hour*60+min)
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}
