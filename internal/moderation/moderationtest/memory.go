// Package moderationtest provides in-memory implementations of the
// moderation ports for tests.
package moderationtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/moderation"
	"github.com/google/uuid"
)

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ReportRepo stores reports in a map. Setting Err makes every call fail.
type ReportRepo struct {
	mu      sync.Mutex
	reports map[uuid.UUID]models.Report
	Writes  int
	Err     error
}

func NewReportRepo() *ReportRepo {
	return &ReportRepo{reports: make(map[uuid.UUID]models.Report)}
}

func (r *ReportRepo) Insert(_ context.Context, report *models.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for _, existing := range r.reports {
		if existing.ReporterID == report.ReporterID && existing.ContentType == report.ContentType && existing.DedupeKey == report.DedupeKey {
			return moderation.ErrDuplicateReport
		}
	}
	r.reports[report.ID] = *report
	r.Writes++
	return nil
}

func (r *ReportRepo) Get(_ context.Context, id uuid.UUID) (*models.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	report, ok := r.reports[id]
	if !ok {
		return nil, moderation.ErrReportNotFound
	}
	return &report, nil
}

func (r *ReportRepo) Exists(_ context.Context, reporterID uuid.UUID, contentType models.ContentType, dedupeKey string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	for _, existing := range r.reports {
		if existing.ReporterID == reporterID && existing.ContentType == contentType && existing.DedupeKey == dedupeKey {
			return true, nil
		}
	}
	return false, nil
}

func (r *ReportRepo) CountSince(_ context.Context, reporterID uuid.UUID, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	var n int64
	for _, existing := range r.reports {
		if existing.ReporterID == reporterID && !existing.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *ReportRepo) Transition(_ context.Context, id uuid.UUID, from []models.ReportState, to models.ReportState, adminID *uuid.UUID, at time.Time) (*models.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	report, ok := r.reports[id]
	if !ok {
		return nil, moderation.ErrReportNotFound
	}
	allowed := false
	for _, s := range from {
		if report.State == s {
			allowed = true
		}
	}
	if !allowed {
		return nil, moderation.ErrStateConflict
	}
	report.State = to
	report.UpdatedAt = at
	if to == models.ReportOpen {
		report.ResolvedBy = nil
		report.ResolvedAt = nil
		report.ResolutionRound++
	} else {
		report.ResolvedBy = adminID
		report.ResolvedAt = &at
	}
	r.reports[id] = report
	r.Writes++
	return &report, nil
}

func (r *ReportRepo) List(_ context.Context, state models.ReportState, limit, offset int) ([]models.Report, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, 0, r.Err
	}
	var list []models.Report
	for _, report := range r.reports {
		if state == "" || report.State == state {
			list = append(list, report)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	total := int64(len(list))
	if offset >= len(list) {
		return []models.Report{}, total, nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list, total, nil
}

// SanctionLedger keeps sanctions in insertion order. InsertErr fails only
// inserts, FailInsert fails the inserts it returns an error for, and Err
// fails everything. Writes made inside a failed WithinTx are rolled back.
type SanctionLedger struct {
	mu         sync.Mutex
	sanctions  []models.Sanction
	Writes     int
	InsertErr  error
	FailInsert func(s *models.Sanction) error
	Err        error
}

func (l *SanctionLedger) WithinTx(ctx context.Context, fn func(tx moderation.SanctionLedger) error) error {
	tx := &ledgerTx{SanctionLedger: l}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

// ledgerTx records an undo step for every write so a failed unit of work
// leaves the ledger as it found it.
type ledgerTx struct {
	*SanctionLedger
	undo []func(sanctions []models.Sanction) []models.Sanction
}

func (t *ledgerTx) WithinTx(_ context.Context, fn func(tx moderation.SanctionLedger) error) error {
	return fn(t)
}

func (t *ledgerTx) Insert(ctx context.Context, s *models.Sanction) error {
	if err := t.SanctionLedger.Insert(ctx, s); err != nil {
		return err
	}
	id := s.ID
	t.undo = append(t.undo, func(sanctions []models.Sanction) []models.Sanction {
		for i := range sanctions {
			if sanctions[i].ID == id {
				return append(sanctions[:i], sanctions[i+1:]...)
			}
		}
		return sanctions
	})
	return nil
}

func (t *ledgerTx) FulfillActive(ctx context.Context, userID uuid.UUID, st models.SanctionType) (int64, error) {
	var ids []uuid.UUID
	for _, s := range t.All() {
		if s.UserID == userID && s.Type == st && s.State == models.SanctionActive {
			ids = append(ids, s.ID)
		}
	}
	n, err := t.SanctionLedger.FulfillActive(ctx, userID, st)
	if err != nil {
		return 0, err
	}
	t.undo = append(t.undo, restoreState(models.SanctionActive, ids...))
	return n, nil
}

func (t *ledgerTx) Transition(ctx context.Context, id uuid.UUID, from, to models.SanctionState) (*models.Sanction, error) {
	out, err := t.SanctionLedger.Transition(ctx, id, from, to)
	if err != nil {
		return nil, err
	}
	t.undo = append(t.undo, restoreState(from, id))
	return out, nil
}

func (t *ledgerTx) rollback() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.sanctions = t.undo[i](t.sanctions)
	}
}

func restoreState(state models.SanctionState, ids ...uuid.UUID) func([]models.Sanction) []models.Sanction {
	return func(sanctions []models.Sanction) []models.Sanction {
		for i := range sanctions {
			for _, id := range ids {
				if sanctions[i].ID == id {
					sanctions[i].State = state
				}
			}
		}
		return sanctions
	}
}

func NewSanctionLedger() *SanctionLedger {
	return &SanctionLedger{}
}

func (l *SanctionLedger) Insert(_ context.Context, s *models.Sanction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return l.Err
	}
	if l.InsertErr != nil {
		return l.InsertErr
	}
	if l.FailInsert != nil {
		if err := l.FailInsert(s); err != nil {
			return err
		}
	}
	l.sanctions = append(l.sanctions, *s)
	l.Writes++
	return nil
}

func (l *SanctionLedger) Get(_ context.Context, id uuid.UUID) (*models.Sanction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return nil, l.Err
	}
	for _, s := range l.sanctions {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, moderation.ErrSanctionNotFound
}

func (l *SanctionLedger) CountActive(_ context.Context, userID uuid.UUID, t models.SanctionType) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return 0, l.Err
	}
	var n int64
	for _, s := range l.sanctions {
		if s.UserID == userID && s.Type == t && s.State == models.SanctionActive {
			n++
		}
	}
	return n, nil
}

func (l *SanctionLedger) FulfillActive(_ context.Context, userID uuid.UUID, t models.SanctionType) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return 0, l.Err
	}
	var n int64
	for i := range l.sanctions {
		s := &l.sanctions[i]
		if s.UserID == userID && s.Type == t && s.State == models.SanctionActive {
			s.State = models.SanctionFulfilled
			n++
		}
	}
	l.Writes++
	return n, nil
}

func (l *SanctionLedger) Transition(_ context.Context, id uuid.UUID, from, to models.SanctionState) (*models.Sanction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return nil, l.Err
	}
	for i := range l.sanctions {
		s := &l.sanctions[i]
		if s.ID != id {
			continue
		}
		if s.State != from {
			return nil, moderation.ErrStateConflict
		}
		s.State = to
		l.Writes++
		out := *s
		return &out, nil
	}
	return nil, moderation.ErrSanctionNotFound
}

func (l *SanctionLedger) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Sanction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return nil, l.Err
	}
	var out []models.Sanction
	for _, s := range l.sanctions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (l *SanctionLedger) FindByReport(_ context.Context, reportID uuid.UUID, round int) (*models.Sanction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return nil, l.Err
	}
	for _, s := range l.sanctions {
		if s.ReportID != nil && *s.ReportID == reportID && s.ReportRound == round {
			return &s, nil
		}
	}
	return nil, nil
}

func (l *SanctionLedger) HasActiveSuspension(_ context.Context, userID uuid.UUID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return false, l.Err
	}
	for _, s := range l.sanctions {
		if s.UserID == userID && s.State == models.SanctionActive && s.Type.Suspends() {
			return true, nil
		}
	}
	return false, nil
}

func (l *SanctionLedger) ListExpired(_ context.Context, now time.Time) ([]models.Sanction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return nil, l.Err
	}
	var out []models.Sanction
	for _, s := range l.sanctions {
		if s.State == models.SanctionActive && s.Type == models.SanctionTemporarySuspension && s.EndsAt != nil && !s.EndsAt.After(now) {
			out = append(out, s)
		}
	}
	return out, nil
}

// All returns a copy of every stored sanction.
func (l *SanctionLedger) All() []models.Sanction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.Sanction(nil), l.sanctions...)
}

// Reputation is an in-memory reputation ledger.
type Reputation struct {
	mu     sync.Mutex
	scores map[uuid.UUID]int
	Err    error
}

func NewReputation() *Reputation {
	return &Reputation{scores: make(map[uuid.UUID]int)}
}

func (r *Reputation) Increment(_ context.Context, userID uuid.UUID, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.scores[userID] += delta
	return nil
}

func (r *Reputation) Score(userID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scores[userID]
}

// Notifier records dispatched notifications. With Err set nothing is
// recorded and Notify fails.
type Notifier struct {
	mu   sync.Mutex
	sent []moderation.Notification
	Err  error
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) Notify(_ context.Context, note moderation.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.sent = append(n.sent, note)
	return nil
}

func (n *Notifier) Sent() []moderation.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]moderation.Notification(nil), n.sent...)
}

// For returns the notifications addressed to userID.
func (n *Notifier) For(userID uuid.UUID) []moderation.Notification {
	var out []moderation.Notification
	for _, note := range n.Sent() {
		if note.UserID == userID {
			out = append(out, note)
		}
	}
	return out
}

// Content tracks stored content ids and profile suspension flags.
type Content struct {
	mu         sync.Mutex
	items      map[string]bool
	deleted    []string
	suspended  map[uuid.UUID]bool
	DeleteErr  error
	SuspendErr error
}

func NewContent() *Content {
	return &Content{
		items:     make(map[string]bool),
		suspended: make(map[uuid.UUID]bool),
	}
}

func contentKey(t models.ContentType, id string) string {
	return string(t) + ":" + id
}

// Put registers content so a later delete removes it.
func (c *Content) Put(t models.ContentType, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[contentKey(t, id)] = true
}

func (c *Content) DeleteContent(_ context.Context, t models.ContentType, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.DeleteErr != nil {
		return false, c.DeleteErr
	}
	key := contentKey(t, id)
	if !c.items[key] {
		return false, nil
	}
	delete(c.items, key)
	c.deleted = append(c.deleted, key)
	return true, nil
}

func (c *Content) SetProfileSuspended(_ context.Context, userID uuid.UUID, suspended bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SuspendErr != nil {
		return c.SuspendErr
	}
	c.suspended[userID] = suspended
	return nil
}

func (c *Content) Has(t models.ContentType, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items[contentKey(t, id)]
}

func (c *Content) Deleted() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.deleted...)
}

func (c *Content) Suspended(userID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suspended[userID]
}

// Fixture wires an Orchestrator over in-memory ports.
type Fixture struct {
	Clock        *Clock
	Reports      *ReportRepo
	Ledger       *SanctionLedger
	Reputation   *Reputation
	Notifier     *Notifier
	Content      *Content
	Locker       *moderation.KeyedMutex
	Engine       *moderation.Engine
	Orchestrator *moderation.Orchestrator
}

func NewFixture() *Fixture {
	f := &Fixture{
		Clock:      NewClock(time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)),
		Reports:    NewReportRepo(),
		Ledger:     NewSanctionLedger(),
		Reputation: NewReputation(),
		Notifier:   NewNotifier(),
		Content:    NewContent(),
		Locker:     moderation.NewKeyedMutex(),
	}
	f.Engine = moderation.NewEngine(f.Ledger, f.Notifier, f.Content, f.Locker, moderation.WithClock(f.Clock.Now))
	reports := moderation.NewReports(f.Reports, f.Locker, moderation.WithClock(f.Clock.Now))
	f.Orchestrator = moderation.NewOrchestrator(reports, f.Engine, f.Reputation, f.Notifier, f.Content, f.Locker)
	return f
}
