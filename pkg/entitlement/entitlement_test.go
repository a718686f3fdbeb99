package entitlement

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"codecanvas_backend/internal/model"
)

type fakeRepo struct {
	mu          sync.Mutex
	plans       map[uint]*model.Plan
	plansByName map[string]*model.Plan
	subs        map[uint]*model.UserSubscription
	usages      map[uint]*model.UserUsage
	portfolios  map[uint]int64
	generations map[uint]int64

	subCreates   int
	usageCreates int
}

func newFakeRepo(plans ...*model.Plan) *fakeRepo {
	r := &fakeRepo{
		plans:       make(map[uint]*model.Plan),
		plansByName: make(map[string]*model.Plan),
		subs:        make(map[uint]*model.UserSubscription),
		usages:      make(map[uint]*model.UserUsage),
		portfolios:  make(map[uint]int64),
		generations: make(map[uint]int64),
	}
	for _, p := range plans {
		r.plans[p.ID] = p
		r.plansByName[p.Name] = p
	}
	return r
}

func (r *fakeRepo) GetSubscriptionWithPlan(userID uint) (*model.UserSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *sub
	if plan, ok := r.plans[sub.PlanID]; ok {
		out.Plan = *plan
	}
	return &out, nil
}

func (r *fakeRepo) CreateSubscription(sub *model.UserSubscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.subs[sub.UserID]; exists {
		return gorm.ErrDuplicatedKey
	}
	r.subCreates++
	copied := *sub
	r.subs[sub.UserID] = &copied
	return nil
}

func (r *fakeRepo) GetPlanByName(name string) (*model.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	plan, ok := r.plansByName[name]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return plan, nil
}

func (r *fakeRepo) GetUsage(userID uint) (*model.UserUsage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	usage, ok := r.usages[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *usage
	return &out, nil
}

func (r *fakeRepo) CreateUsage(usage *model.UserUsage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.usages[usage.UserID]; exists {
		return gorm.ErrDuplicatedKey
	}
	r.usageCreates++
	copied := *usage
	r.usages[usage.UserID] = &copied
	return nil
}

func (r *fakeRepo) UpdateUsageCounts(userID uint, portfolios, aiGenerations int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	usage, ok := r.usages[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	usage.PortfoliosCount = portfolios
	usage.AIGenerationsCount = aiGenerations
	return nil
}

func (r *fakeRepo) CountPortfolios(userID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.portfolios[userID], nil
}

func (r *fakeRepo) CountAIGenerations(userID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generations[userID], nil
}

func planWithLimits(id uint, name string, maxPortfolios, maxAI int, features datatypes.JSONMap) *model.Plan {
	p := &model.Plan{
		Name:             name,
		MaxPortfolios:    maxPortfolios,
		MaxAIGenerations: maxAI,
		Features:         features,
		IsActive:         true,
	}
	p.ID = id
	return p
}

func freePlan() *model.Plan {
	return planWithLimits(1, "Free", 2, 5, datatypes.JSONMap{
		model.FeatureAIContent: false,
		model.FeatureAutoSync:  false,
	})
}

func snapshotFor(plan *model.Plan, portfolios, generations int) *Snapshot {
	return &Snapshot{
		Subscription: &model.UserSubscription{
			PlanID: plan.ID,
			Status: model.SubscriptionStatusActive,
			Plan:   *plan,
		},
		Usage: &model.UserUsage{
			PortfoliosCount:    portfolios,
			AIGenerationsCount: generations,
		},
	}
}

func TestCanCreatePortfolioUnlimited(t *testing.T) {
	plan := planWithLimits(3, "Enterprise", model.UnlimitedQuota, model.UnlimitedQuota, nil)

	for _, count := range []int{0, 1, 100, 100000} {
		snap := snapshotFor(plan, count, 0)
		if !snap.CanCreatePortfolio() {
			t.Fatalf("unlimited plan denied creation at count %d", count)
		}
		if got := snap.RemainingPortfolios(); got != Unlimited {
			t.Fatalf("RemainingPortfolios() = %d, want Unlimited", got)
		}
	}
}

func TestCanCreatePortfolioLimited(t *testing.T) {
	plan := planWithLimits(2, "Pro", 3, 10, nil)

	tests := []struct {
		count     int
		canCreate bool
		remaining int
	}{
		{count: 0, canCreate: true, remaining: 3},
		{count: 2, canCreate: true, remaining: 1},
		{count: 3, canCreate: false, remaining: 0},
		{count: 5, canCreate: false, remaining: 0}, // over-count never goes negative
	}

	for _, tt := range tests {
		snap := snapshotFor(plan, tt.count, 0)
		if got := snap.CanCreatePortfolio(); got != tt.canCreate {
			t.Fatalf("count %d: CanCreatePortfolio() = %v, want %v", tt.count, got, tt.canCreate)
		}
		if got := snap.RemainingPortfolios(); got != tt.remaining {
			t.Fatalf("count %d: RemainingPortfolios() = %d, want %d", tt.count, got, tt.remaining)
		}
	}
}

func TestSnapshotFailsClosed(t *testing.T) {
	var nilSnap *Snapshot
	snaps := []*Snapshot{nilSnap, {}, {Usage: &model.UserUsage{}}}

	for i, snap := range snaps {
		if snap.CanCreatePortfolio() || snap.CanUseAI() || snap.CanGenerateAI() {
			t.Fatalf("snapshot %d: expected all permissions denied", i)
		}
		if snap.RemainingPortfolios() != 0 || snap.RemainingAIGenerations() != 0 {
			t.Fatalf("snapshot %d: expected zero remaining quota", i)
		}
	}
}

func TestCanceledSubscriptionDeniesEverything(t *testing.T) {
	plan := planWithLimits(2, "Pro", 10, 10, datatypes.JSONMap{model.FeatureAIContent: true})
	snap := snapshotFor(plan, 0, 0)
	snap.Subscription.Status = model.SubscriptionStatusCanceled

	if snap.CanCreatePortfolio() || snap.CanUseAI() {
		t.Fatal("canceled subscription should not grant entitlements")
	}
}

func TestAIQuota(t *testing.T) {
	plan := planWithLimits(2, "Pro", 10, 3, datatypes.JSONMap{model.FeatureAIContent: true})

	snap := snapshotFor(plan, 0, 2)
	require.True(t, snap.CanUseAI())
	require.True(t, snap.CanGenerateAI())
	require.Equal(t, 1, snap.RemainingAIGenerations())

	snap = snapshotFor(plan, 0, 3)
	require.True(t, snap.CanUseAI(), "feature flag is plan-level, not quota-level")
	require.False(t, snap.CanGenerateAI())

	// feature disabled wins over quota headroom
	noAI := planWithLimits(1, "Free", 2, 5, datatypes.JSONMap{model.FeatureAIContent: false})
	require.False(t, snapshotFor(noAI, 0, 0).CanGenerateAI())
}

func TestLoadRequiresUser(t *testing.T) {
	svc := NewService(newFakeRepo(freePlan()))

	_, err := svc.Load(0)
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestLoadLazyCreatesDefaultsOnce(t *testing.T) {
	repo := newFakeRepo(freePlan())
	svc := NewService(repo)

	snap, err := svc.Load(42)
	require.NoError(t, err)
	require.NotNil(t, snap.Subscription)
	require.Equal(t, "Free", snap.Subscription.Plan.Name)
	require.Equal(t, 0, snap.Usage.PortfoliosCount)
	require.Equal(t, 0, snap.Usage.AIGenerationsCount)

	again, err := svc.Load(42)
	require.NoError(t, err)
	require.Equal(t, snap.Subscription.PlanID, again.Subscription.PlanID)
	require.Equal(t, snap.Usage.PortfoliosCount, again.Usage.PortfoliosCount)

	require.Equal(t, 1, repo.subCreates, "second load must not create a duplicate subscription")
	require.Equal(t, 1, repo.usageCreates, "second load must not create a duplicate usage row")
}

func TestLoadFailsWithoutFreePlan(t *testing.T) {
	svc := NewService(newFakeRepo()) // empty catalog

	_, err := svc.Load(7)
	require.ErrorIs(t, err, ErrPlanCatalogUnavailable)
}

func TestConcurrentLoadsCoalesce(t *testing.T) {
	repo := newFakeRepo(freePlan())
	svc := NewService(repo)

	errs := make(chan error, 16)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Load(9)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, 1, repo.subCreates)
	require.Equal(t, 1, repo.usageCreates)
}

func TestFreePlanScenarioRefreshAfterDelete(t *testing.T) {
	repo := newFakeRepo(freePlan())
	svc := NewService(repo)

	// User at the Free limit: 2 of 2 portfolios used.
	repo.portfolios[5] = 2
	_, err := svc.Load(5)
	require.NoError(t, err)
	require.NoError(t, svc.Reconcile(5))

	snap, err := svc.Refresh(5)
	require.NoError(t, err)
	require.False(t, snap.CanCreatePortfolio())
	require.Equal(t, 0, snap.RemainingPortfolios())

	// Deleting one portfolio frees a slot after refresh.
	repo.mu.Lock()
	repo.portfolios[5] = 1
	repo.mu.Unlock()
	require.NoError(t, svc.Reconcile(5))

	snap, err = svc.Refresh(5)
	require.NoError(t, err)
	require.True(t, snap.CanCreatePortfolio())
	require.Equal(t, 1, snap.RemainingPortfolios())
}

func TestReconcileCountsActualRows(t *testing.T) {
	repo := newFakeRepo(freePlan())
	svc := NewService(repo)

	_, err := svc.Load(3)
	require.NoError(t, err)

	repo.mu.Lock()
	repo.portfolios[3] = 4
	repo.generations[3] = 9
	repo.mu.Unlock()

	require.NoError(t, svc.Reconcile(3))

	usage, err := repo.GetUsage(3)
	require.NoError(t, err)
	require.Equal(t, 4, usage.PortfoliosCount)
	require.Equal(t, 9, usage.AIGenerationsCount)
}
