// Package entitlement answers "is this action allowed for this user
// right now" from the user's plan and cached usage counters. Permission
// checks fail closed: a missing or half-loaded snapshot denies
// everything instead of surfacing an error to the caller.
package entitlement

import (
	"errors"
	"log"
	"sync"

	"gorm.io/gorm"

	"codecanvas_backend/internal/model"
)

// Unlimited is what the remaining-quota accessors return when the plan
// carries the -1 catalog sentinel.
const Unlimited = -1

var (
	ErrNotAuthenticated = errors.New("entitlement: no authenticated user")

	// ErrPlanCatalogUnavailable means the Free plan row is missing, so a
	// default subscription cannot be synthesized. Fatal, not retried.
	ErrPlanCatalogUnavailable = errors.New("entitlement: free plan not found in catalog")
)

// Snapshot is the merged Subscription+Plan+Usage view for one user at
// one point in time. All permission methods are pure and nil-safe.
type Snapshot struct {
	Subscription *model.UserSubscription
	Usage        *model.UserUsage
}

func (s *Snapshot) plan() *model.Plan {
	if s == nil || s.Subscription == nil || !s.Subscription.IsEntitling() {
		return nil
	}
	return &s.Subscription.Plan
}

func (s *Snapshot) CanCreatePortfolio() bool {
	plan := s.plan()
	if plan == nil || s.Usage == nil {
		return false
	}
	if plan.MaxPortfolios == model.UnlimitedQuota {
		return true
	}
	return s.Usage.PortfoliosCount < plan.MaxPortfolios
}

// CanUseAI reports whether the plan carries the ai_content capability.
func (s *Snapshot) CanUseAI() bool {
	plan := s.plan()
	return plan != nil && plan.HasFeature(model.FeatureAIContent)
}

// CanGenerateAI additionally checks the generation quota.
func (s *Snapshot) CanGenerateAI() bool {
	if !s.CanUseAI() || s.Usage == nil {
		return false
	}
	plan := s.plan()
	if plan.MaxAIGenerations == model.UnlimitedQuota {
		return true
	}
	return s.Usage.AIGenerationsCount < plan.MaxAIGenerations
}

func (s *Snapshot) HasFeature(name string) bool {
	plan := s.plan()
	return plan != nil && plan.HasFeature(name)
}

// RemainingPortfolios returns Unlimited for unlimited plans and never
// goes negative otherwise.
func (s *Snapshot) RemainingPortfolios() int {
	plan := s.plan()
	if plan == nil || s.Usage == nil {
		return 0
	}
	if plan.MaxPortfolios == model.UnlimitedQuota {
		return Unlimited
	}
	remaining := plan.MaxPortfolios - s.Usage.PortfoliosCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (s *Snapshot) RemainingAIGenerations() int {
	plan := s.plan()
	if plan == nil || s.Usage == nil {
		return 0
	}
	if plan.MaxAIGenerations == model.UnlimitedQuota {
		return Unlimited
	}
	remaining := plan.MaxAIGenerations - s.Usage.AIGenerationsCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

type inflight struct {
	done chan struct{}
	snap *Snapshot
	err  error
}

// Service loads and refreshes entitlement snapshots. Concurrent loads
// for the same user are coalesced into one store round trip so a
// refresh cannot race a prior in-flight load into a torn read.
type Service struct {
	repo Repository

	mu    sync.Mutex
	calls map[uint]*inflight
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:  repo,
		calls: make(map[uint]*inflight),
	}
}

// NewServiceFromDB wires the service to a GORM handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// Load fetches the subscription (joined plan) and usage for a user,
// lazily creating the Free-plan subscription and a zeroed usage row on
// first access. Calling it twice with no intervening mutation yields
// identical values.
func (s *Service) Load(userID uint) (*Snapshot, error) {
	if userID == 0 {
		return nil, ErrNotAuthenticated
	}

	s.mu.Lock()
	if call, ok := s.calls[userID]; ok {
		s.mu.Unlock()
		<-call.done
		return call.snap, call.err
	}
	call := &inflight{done: make(chan struct{})}
	s.calls[userID] = call
	s.mu.Unlock()

	call.snap, call.err = s.load(userID)
	close(call.done)

	s.mu.Lock()
	delete(s.calls, userID)
	s.mu.Unlock()

	return call.snap, call.err
}

// Refresh re-runs Load. Must be called after any mutation that changes
// usage, since counters are not updated transactionally with the
// resources themselves.
func (s *Service) Refresh(userID uint) (*Snapshot, error) {
	return s.Load(userID)
}

func (s *Service) load(userID uint) (*Snapshot, error) {
	sub, err := s.ensureSubscription(userID)
	if err != nil {
		return nil, err
	}

	usage, err := s.ensureUsage(userID)
	if err != nil {
		return nil, err
	}

	return &Snapshot{Subscription: sub, Usage: usage}, nil
}

// ensureSubscription returns the user's subscription row, creating a
// Free-plan row on first access. The unique index on user_id makes the
// lazy insert idempotent under concurrent first access: a duplicate-key
// failure falls back to re-reading the winner's row.
func (s *Service) ensureSubscription(userID uint) (*model.UserSubscription, error) {
	sub, err := s.repo.GetSubscriptionWithPlan(userID)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	freePlan, err := s.repo.GetPlanByName("Free")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanCatalogUnavailable
		}
		return nil, err
	}

	created := &model.UserSubscription{
		UserID: userID,
		PlanID: freePlan.ID,
		Status: model.SubscriptionStatusActive,
	}
	if err := s.repo.CreateSubscription(created); err != nil {
		log.Printf("Could not create default subscription for user %d, re-reading: %v", userID, err)
		return s.repo.GetSubscriptionWithPlan(userID)
	}

	return s.repo.GetSubscriptionWithPlan(userID)
}

func (s *Service) ensureUsage(userID uint) (*model.UserUsage, error) {
	usage, err := s.repo.GetUsage(userID)
	if err == nil {
		return usage, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := &model.UserUsage{UserID: userID}
	if err := s.repo.CreateUsage(created); err != nil {
		log.Printf("Could not create usage row for user %d, re-reading: %v", userID, err)
		return s.repo.GetUsage(userID)
	}

	return s.repo.GetUsage(userID)
}

// Reconcile recomputes the cached usage counters from actual resource
// counts. Called after portfolio create/delete and AI generations, and
// by the nightly sweep.
func (s *Service) Reconcile(userID uint) error {
	if userID == 0 {
		return ErrNotAuthenticated
	}

	if _, err := s.ensureUsage(userID); err != nil {
		return err
	}

	portfolios, err := s.repo.CountPortfolios(userID)
	if err != nil {
		return err
	}
	generations, err := s.repo.CountAIGenerations(userID)
	if err != nil {
		return err
	}

	return s.repo.UpdateUsageCounts(userID, int(portfolios), int(generations))
}
