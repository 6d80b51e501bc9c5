package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"vendor-onboarding-api/models"
	"vendor-onboarding-api/store"
)

// Notifier is satisfied by *NotificationService.
type Notifier interface {
	Dispatch(ctx context.Context, name, email, phone string, data map[string]string) DispatchResult
}

// EventPublisher is satisfied by *clients.KafkaPublisher.
type EventPublisher interface {
	PublishMessage(ctx context.Context, key, value []byte) error
}

// StatusChangedEvent is published after every committed transition.
type StatusChangedEvent struct {
	Event         string                   `json:"event"`
	ApplicationID string                   `json:"application_id"`
	UserID        uint                     `json:"user_id"`
	Trigger       Trigger                  `json:"trigger"`
	FromStatus    models.ApplicationStatus `json:"from_status"`
	ToStatus      models.ApplicationStatus `json:"to_status"`
	ActorID       uint                     `json:"actor_id"`
	VendorID      string                   `json:"vendor_id,omitempty"`
	OccurredAt    time.Time                `json:"occurred_at"`
}

type pendingEffect struct {
	template   string
	app        models.VendorApplication
	data       map[string]string
	transition *Transition
}

// Recorder collects transitions and notifications raised inside a
// transaction so they can run once it commits.
type Recorder struct {
	tx      store.Store
	machine *StateMachine
	effects []pendingEffect
}

// Transition applies trigger and queues its notification. extra is merged
// into the template data.
func (r *Recorder) Transition(ctx context.Context, app *models.VendorApplication, trigger Trigger, actorID uint, detail string, extra map[string]string) (*Transition, error) {
	t, err := r.machine.Apply(ctx, r.tx, app, trigger, actorID, detail)
	if err != nil {
		return nil, err
	}
	data := applicationData(*app)
	if trigger == TriggerReject {
		data["rejection_reason"] = t.Detail
	}
	for k, v := range extra {
		data[k] = v
	}
	r.effects = append(r.effects, pendingEffect{template: t.Template, app: *app, data: data, transition: t})
	return t, nil
}

// Notify queues a notification that is not tied to a transition.
func (r *Recorder) Notify(template string, app models.VendorApplication, extra map[string]string) {
	data := applicationData(app)
	for k, v := range extra {
		data[k] = v
	}
	r.effects = append(r.effects, pendingEffect{template: template, app: app, data: data})
}

func applicationData(app models.VendorApplication) map[string]string {
	data := map[string]string{
		"application_id": app.ApplicationID,
		"business_name":  app.BusinessName,
		"status":         string(app.Status),
	}
	if app.VendorID != nil {
		data["vendor_id"] = *app.VendorID
	}
	return data
}

// Workflow runs state changes in a transaction and performs their side
// effects after commit.
type Workflow struct {
	store    store.Store
	machine  *StateMachine
	notifier Notifier
	events   EventPublisher
}

func NewWorkflow(st store.Store, machine *StateMachine, notifier Notifier, events EventPublisher) *Workflow {
	if machine == nil {
		machine = NewStateMachine()
	}
	return &Workflow{store: st, machine: machine, notifier: notifier, events: events}
}

// Run executes fn in one transaction. Queued effects run only when fn
// returns nil and the commit succeeds.
func (w *Workflow) Run(ctx context.Context, fn func(tx store.Store, rec *Recorder) error) error {
	var rec *Recorder
	err := w.store.WithinTx(ctx, func(tx store.Store) error {
		rec = &Recorder{tx: tx, machine: w.machine}
		return fn(tx, rec)
	})
	if err != nil {
		return err
	}
	w.afterCommit(persistentContext(ctx), rec.effects)
	return nil
}

func (w *Workflow) afterCommit(ctx context.Context, effects []pendingEffect) {
	for _, eff := range effects {
		if eff.transition != nil {
			w.publish(ctx, eff.transition)
		}
		if w.notifier == nil || eff.template == "" {
			continue
		}
		owner, err := w.store.FindUserByID(ctx, eff.app.UserID)
		if err != nil {
			log.Printf("notification %s skipped: owner %d not loaded: %v", eff.template, eff.app.UserID, err)
			continue
		}
		w.notifier.Dispatch(ctx, eff.template, owner.Email, owner.PhoneNumber(), eff.data)
	}
}

func (w *Workflow) publish(ctx context.Context, t *Transition) {
	if w.events == nil {
		return
	}
	evt := StatusChangedEvent{
		Event:         "application.status_changed",
		ApplicationID: t.Application.ApplicationID,
		UserID:        t.Application.UserID,
		Trigger:       t.Trigger,
		FromStatus:    t.From,
		ToStatus:      t.To,
		ActorID:       t.ActorID,
		OccurredAt:    t.At,
	}
	if t.Application.VendorID != nil {
		evt.VendorID = *t.Application.VendorID
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		log.Printf("status event marshal failed: %v", err)
		return
	}

	pubCtx, cancel := boundedContext(ctx, defaultNotifyTimeout)
	defer cancel()
	if err := w.events.PublishMessage(pubCtx, []byte(evt.ApplicationID), payload); err != nil {
		log.Printf("status event publish failed (application=%s): %v", evt.ApplicationID, err)
	}
}
