// Package metrics defines and registers all custom Prometheus metrics for
// the auth service. It is the single source of truth for metric names,
// labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "auth"

// ── Login / token metrics ─────────────────────────────────────────────────────

// LoginsTotal counts login attempts by outcome.
// Label:
//   - outcome: "success", "invalid_credentials", "suspended"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// RefreshRotationsTotal counts refresh-token rotations.
// Label:
//   - outcome: "success" or "invalid" (absent, revoked, expired, replayed)
var RefreshRotationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_rotations_total",
		Help:      "Total number of refresh-token rotation attempts, by outcome.",
	},
	[]string{"outcome"},
)

// RoleSelectionsTotal counts explicit active-role selections.
// Label:
//   - outcome: "success", "not_granted", "scope_mismatch"
var RoleSelectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_selections_total",
		Help:      "Total number of active-role selection attempts, by outcome.",
	},
	[]string{"outcome"},
)

// ── Password reset metrics ────────────────────────────────────────────────────

// ResetRequestsTotal counts password-reset requests.
// Label:
//   - outcome: "accepted" (includes silent no-ops) or "rate_limited"
var ResetRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_reset_requests_total",
		Help:      "Total number of password reset requests, by outcome.",
	},
	[]string{"outcome"},
)

// ResetConfirmationsTotal counts password-reset confirmations.
// Label:
//   - outcome: "success", "invalid", "expired", "validation"
var ResetConfirmationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_reset_confirmations_total",
		Help:      "Total number of password reset confirmation attempts, by outcome.",
	},
	[]string{"outcome"},
)

// ── Email metrics ─────────────────────────────────────────────────────────────

// EmailsSentTotal counts emails handed to the delivery backend.
// Label:
//   - kind: "password_reset" or "email_verification"
var EmailsSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "emails_sent_total",
		Help:      "Total number of emails delivered, by kind.",
	},
	[]string{"kind"},
)

// EmailErrorsTotal counts failed deliveries.
// Label:
//   - kind: "password_reset" or "email_verification"
var EmailErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "email_errors_total",
		Help:      "Total number of email delivery failures, by kind.",
	},
	[]string{"kind"},
)
