package controllers

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/toolbench/quotagate/internal/db"
	"github.com/toolbench/quotagate/internal/httpmodel"
	"github.com/toolbench/quotagate/internal/model"
)

// natsRequestTimeout bounds the database work done on behalf of a single NATS request.
const natsRequestTimeout = 30 * time.Second

// NATSResponse is the envelope published in reply to every NATS request.
type NATSResponse struct {
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
	Status string      `json:"status"`
}

func natsSuccess(result interface{}) *NATSResponse {
	return &NATSResponse{Result: result, Status: model.StatusSuccess}
}

func natsError(err error) *NATSResponse {
	return &NATSResponse{Error: err.Error(), Status: model.StatusError}
}

func (s Server) natsReply(log *logrus.Entry, reply string, resp *NATSResponse) {
	if err := s.NATSConn.Publish(reply, resp); err != nil {
		log.Errorf("unable to publish the response: %s", err)
	}
}

// AdmitNATS handles admission requests arriving over NATS. The semantics match the
// POST /v1/admissions endpoint.
func (s Server) AdmitNATS(subject, reply string, request *httpmodel.AdmissionRequest) {
	log := log.WithFields(logrus.Fields{"context": "admitting resource consumption", "subject": subject})

	ctx, cancel := context.WithTimeout(context.Background(), natsRequestTimeout)
	defer cancel()

	if err := request.Validate(); err != nil {
		s.natsReply(log, reply, natsError(err))
		return
	}

	log = log.WithFields(logrus.Fields{
		"user":     request.Username,
		"resource": request.Resource,
		"amount":   request.Amount,
	})

	user, err := db.GetUser(ctx, s.GORMDB, request.Username)
	if err != nil {
		log.Error(err)
		s.natsReply(log, reply, natsError(err))
		return
	}

	result, err := s.Gate.Admit(ctx, user.ID, request.Resource, request.Amount)
	if err != nil {
		if !errors.Is(err, model.ErrInvalidAmount) {
			log.Error(err)
		}
		s.natsReply(log, reply, natsError(err))
		return
	}

	if !result.Allowed {
		log.Infof("denied: %d of %d %s used", result.Current, result.Cap, result.ResourceKind)
	}

	s.natsReply(log, reply, natsSuccess(result))
}

// UsageRequest identifies the user whose usage summary is wanted.
type UsageRequest struct {
	Username string `json:"username"`
}

// GetUsagesNATS handles usage summary requests arriving over NATS. The semantics match
// the GET /v1/users/{username}/usages endpoint.
func (s Server) GetUsagesNATS(subject, reply string, request *UsageRequest) {
	log := log.WithFields(logrus.Fields{"context": "getting user usage", "subject": subject})

	ctx, cancel := context.WithTimeout(context.Background(), natsRequestTimeout)
	defer cancel()

	if request.Username == "" {
		s.natsReply(log, reply, natsError(errors.New("username must be set")))
		return
	}
	log = log.WithFields(logrus.Fields{"user": request.Username})

	user, err := db.GetUser(ctx, s.GORMDB, request.Username)
	if err != nil {
		log.Error(err)
		s.natsReply(log, reply, natsError(err))
		return
	}

	summary, err := s.usageSummary(ctx, user.ID, time.Now())
	if err != nil {
		log.Error(err)
		s.natsReply(log, reply, natsError(err))
		return
	}

	s.natsReply(log, reply, natsSuccess(summary))
}

// QuotaCheckRequest asks whether an amount of a resource would fit within the user's
// remaining quota.
type QuotaCheckRequest struct {
	Username string `json:"username"`
	Resource string `json:"resource"`
	Amount   int    `json:"amount"`
}

// QuotaCheckResult reports how much of a resource a user has left this month.
type QuotaCheckResult struct {
	Resource  string `json:"resource"`
	Plan      string `json:"plan"`
	Current   int    `json:"current"`
	Cap       int    `json:"cap"`
	Remaining int    `json:"remaining"`
	WouldFit  bool   `json:"would_fit"`
}

// CheckQuotaNATS reports a user's remaining quota for a resource without recording any
// consumption. Callers that intend to consume the resource should use AdmitNATS instead,
// since a favorable answer here can be invalidated by a concurrent admission.
func (s Server) CheckQuotaNATS(subject, reply string, request *QuotaCheckRequest) {
	log := log.WithFields(logrus.Fields{"context": "checking quota", "subject": subject})

	ctx, cancel := context.WithTimeout(context.Background(), natsRequestTimeout)
	defer cancel()

	if request.Username == "" {
		s.natsReply(log, reply, natsError(errors.New("username must be set")))
		return
	}
	if _, ok := model.LookupResourceKind(request.Resource); !ok {
		s.natsReply(log, reply, natsError(errors.Errorf("unknown resource kind: %s", request.Resource)))
		return
	}
	amount := request.Amount
	if amount == 0 {
		amount = 1
	}
	log = log.WithFields(logrus.Fields{"user": request.Username, "resource": request.Resource})

	user, err := db.GetUser(ctx, s.GORMDB, request.Username)
	if err != nil {
		log.Error(err)
		s.natsReply(log, reply, natsError(err))
		return
	}

	now := time.Now()

	plan, _, err := s.Ledger.EffectivePlan(ctx, user.ID, now)
	if err != nil {
		log.Error(err)
		s.natsReply(log, reply, natsError(err))
		return
	}

	record, err := s.Counter.CurrentUsage(ctx, user.ID, now)
	if err != nil {
		log.Error(err)
		s.natsReply(log, reply, natsError(err))
		return
	}

	used := record.CounterFor(request.Resource)
	cap := plan.CapFor(request.Resource)
	remaining := cap - used
	if remaining < 0 {
		remaining = 0
	}

	s.natsReply(log, reply, natsSuccess(&QuotaCheckResult{
		Resource:  request.Resource,
		Plan:      plan.Name,
		Current:   used,
		Cap:       cap,
		Remaining: remaining,
		WouldFit:  amount > 0 && amount <= remaining,
	}))
}
