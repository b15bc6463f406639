// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"strconv"

	"github.com/dalemusser/carbonhub/internal/app/store/audit"
	"github.com/dalemusser/carbonhub/internal/app/system/scopecache"
	"github.com/dalemusser/carbonhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (login, logout, password).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Admin controls logging for administrative events (user, client, chart,
	// project and settings changes).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Admin string
}

// Logger provides convenience methods for recording audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
//
// Events carrying a client ID are stamped with the client's owning
// consulting admin before they are written, so admin-scoped queries stay
// stable even after the client is reassigned. The owner lookup goes
// through the scope cache to keep the write path off the clients
// collection.
type Logger struct {
	store  *audit.Store
	owners *scopecache.Cache
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. owners may be nil, in which case events
// are written without the denormalized owner.
func New(store *audit.Store, owners *scopecache.Cache, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		owners: owners,
		zapLog: zapLog,
		config: config,
	}
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("module", event.Module),
		zap.String("action", event.Action),
		zap.Bool("success", event.Success),
	}

	if event.ClientID != nil {
		fields = append(fields, zap.String("client_id", event.ClientID.Hex()))
	}
	if event.OwnerAdminID != nil {
		fields = append(fields, zap.String("owner_admin_id", event.OwnerAdminID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.ActorRole != "" {
		fields = append(fields, zap.String("actor_role", string(event.ActorRole)))
	}
	if event.TargetID != nil {
		fields = append(fields, zap.String("target_id", event.TargetID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
// Logging destination is controlled by config: "all", "db", "log", or "off".
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	// Determine which config setting applies based on the event module.
	var setting string
	switch event.Module {
	case audit.ModuleAuth:
		setting = l.config.Auth
	case "":
		setting = "all" // never drop unclassified events
	default:
		setting = l.config.Admin
	}

	// Check if logging is disabled for this module
	if setting == "off" {
		return
	}

	// Stamp the owning consulting admin. A failed lookup is logged but
	// does not block the event; the trail keeps working without the
	// denormalized owner.
	if event.OwnerAdminID == nil && event.ClientID != nil && l.owners != nil {
		owner, err := l.owners.OwnerAdminID(ctx, *event.ClientID)
		if err != nil {
			l.zapLog.Warn("failed to resolve client owner for audit event",
				zap.Error(err),
				zap.String("client_id", event.ClientID.Hex()),
			)
		} else {
			event.OwnerAdminID = owner
		}
	}

	// Log to zap if configured
	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	// Log to MongoDB if configured
	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("action", event.Action),
			)
		}
	}
}

// actor copies the acting user's identity into the event. A nil actor
// leaves the fields empty (system-initiated events).
func actor(event audit.Event, u *models.User) audit.Event {
	if u != nil {
		event.ActorID = &u.ID
		event.ActorRole = u.Role
	}
	return event
}

// --- Authentication Events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, user *models.User, authMethod string) {
	if l == nil || user == nil {
		return
	}
	l.Log(ctx, actor(audit.Event{
		Module:   audit.ModuleAuth,
		Action:   audit.ActionLoginSuccess,
		ClientID: user.ClientID,
		Success:  true,
		Details: map[string]string{
			"auth_method": authMethod,
			"email":       user.Email,
		},
	}, user))
}

// LoginFailed logs a failed login attempt. The attempted email is kept in
// the details because there may be no matching user record.
func (l *Logger) LoginFailed(ctx context.Context, attemptedEmail, reason string) {
	l.Log(ctx, audit.Event{
		Module:        audit.ModuleAuth,
		Action:        audit.ActionLoginFailed,
		Success:       false,
		FailureReason: reason,
		Details: map[string]string{
			"attempted_email": attemptedEmail,
		},
	})
}

// Logout logs a user logout.
func (l *Logger) Logout(ctx context.Context, user *models.User) {
	if l == nil || user == nil {
		return
	}
	l.Log(ctx, actor(audit.Event{
		Module:   audit.ModuleAuth,
		Action:   audit.ActionLogout,
		ClientID: user.ClientID,
		Success:  true,
	}, user))
}

// PasswordChanged logs a password change.
func (l *Logger) PasswordChanged(ctx context.Context, user *models.User) {
	if l == nil || user == nil {
		return
	}
	l.Log(ctx, actor(audit.Event{
		Module:   audit.ModuleAuth,
		Action:   audit.ActionPasswordChanged,
		ClientID: user.ClientID,
		Success:  true,
	}, user))
}

// --- User Administration Events ---

// UserCreated logs when an admin creates a user.
func (l *Logger) UserCreated(ctx context.Context, adminUser *models.User, target *models.User) {
	if l == nil || target == nil {
		return
	}
	l.Log(ctx, actor(audit.Event{
		Module:   audit.ModuleUsers,
		Action:   audit.ActionUserCreated,
		ClientID: target.ClientID,
		TargetID: &target.ID,
		Success:  true,
		Details: map[string]string{
			"role":  string(target.Role),
			"email": target.Email,
		},
	}, adminUser))
}

// UserStatusChanged logs when an admin disables or enables a user account.
func (l *Logger) UserStatusChanged(ctx context.Context, adminUser *models.User, targetID primitive.ObjectID, clientID *primitive.ObjectID, enabled bool) {
	action := audit.ActionUserDisabled
	if enabled {
		action = audit.ActionUserEnabled
	}
	l.Log(ctx, actor(audit.Event{
		Module:   audit.ModuleUsers,
		Action:   action,
		ClientID: clientID,
		TargetID: &targetID,
		Success:  true,
	}, adminUser))
}

// UserDeleted logs when an admin deletes a user.
func (l *Logger) UserDeleted(ctx context.Context, adminUser *models.User, targetID primitive.ObjectID, clientID *primitive.ObjectID, role models.Role) {
	l.Log(ctx, actor(audit.Event{
		Module:   audit.ModuleUsers,
		Action:   audit.ActionUserDeleted,
		ClientID: clientID,
		TargetID: &targetID,
		Success:  true,
		Details: map[string]string{
			"role": string(role),
		},
	}, adminUser))
}

// ChecklistAssigned logs when an audit checklist is assigned to a user.
// preset is empty for hand-edited checklists.
func (l *Logger) ChecklistAssigned(ctx context.Context, adminUser *models.User, target *models.User, preset string) {
	if l == nil || target == nil {
		return
	}
	details := map[string]string{
		"role": string(target.Role),
	}
	if preset != "" {
		details["preset"] = preset
	}
	l.Log(ctx, actor(audit.Event{
		Module:   audit.ModuleUsers,
		Action:   audit.ActionChecklistAssigned,
		ClientID: target.ClientID,
		TargetID: &target.ID,
		Success:  true,
		Details:  details,
	}, adminUser))
}

// ConsultantAssigned logs when a consultant is assigned to serve a client.
func (l *Logger) ConsultantAssigned(ctx context.Context, adminUser *models.User, consultantID, clientID primitive.ObjectID) {
	l.Log(ctx, actor(audit.Event{
		Module:   audit.ModuleUsers,
		Action:   audit.ActionConsultantAssigned,
		ClientID: &clientID,
		TargetID: &consultantID,
		Success:  true,
	}, adminUser))
}

// ConsultantRemoved logs when a consultant is removed from a client.
func (l *Logger) ConsultantRemoved(ctx context.Context, adminUser *models.User, consultantID, clientID primitive.ObjectID) {
	l.Log(ctx, actor(audit.Event{
		Module:   audit.ModuleUsers,
		Action:   audit.ActionConsultantRemoved,
		ClientID: &clientID,
		TargetID: &consultantID,
		Success:  true,
	}, adminUser))
}

// --- Organization Events ---

// ClientCreated logs when an admin creates a client organization.
func (l *Logger) ClientCreated(ctx context.Context, adminUser *models.User, clientID primitive.ObjectID, name string) {
	l.Log(ctx, actor(audit.Event{
		Module:   audit.ModuleOrganization,
		Action:   audit.ActionClientCreated,
		ClientID: &clientID,
		Success:  true,
		Details: map[string]string{
			"name": name,
		},
	}, adminUser))
}

// ClientDeleted logs when an admin deletes a client organization.
func (l *Logger) ClientDeleted(ctx context.Context, adminUser *models.User, clientID primitive.ObjectID, name string) {
	l.Log(ctx, actor(audit.Event{
		Module:   audit.ModuleOrganization,
		Action:   audit.ActionClientDeleted,
		ClientID: &clientID,
		Success:  true,
		Details: map[string]string{
			"name": name,
		},
	}, adminUser))
}

// NodeCreated logs when a chart node is added to a client's org or
// process chart.
func (l *Logger) NodeCreated(ctx context.Context, adminUser *models.User, clientID, nodeID primitive.ObjectID, chart models.ChartKind, name string) {
	l.Log(ctx, actor(audit.Event{
		Module:   audit.ModuleOrganization,
		Action:   audit.ActionNodeCreated,
		ClientID: &clientID,
		TargetID: &nodeID,
		Success:  true,
		Details: map[string]string{
			"chart": string(chart),
			"name":  name,
		},
	}, adminUser))
}

// NodeRemoved logs when a chart node is removed.
func (l *Logger) NodeRemoved(ctx context.Context, adminUser *models.User, clientID, nodeID primitive.ObjectID, chart models.ChartKind) {
	l.Log(ctx, actor(audit.Event{
		Module:   audit.ModuleOrganization,
		Action:   audit.ActionNodeRemoved,
		ClientID: &clientID,
		TargetID: &nodeID,
		Success:  true,
		Details: map[string]string{
			"chart": string(chart),
		},
	}, adminUser))
}

// ScopeAdded logs when an emission scope is attached to a chart node.
func (l *Logger) ScopeAdded(ctx context.Context, adminUser *models.User, clientID, nodeID primitive.ObjectID, identifier, scopeType string) {
	l.Log(ctx, actor(audit.Event{
		Module:   audit.ModuleOrganization,
		Action:   audit.ActionScopeAdded,
		ClientID: &clientID,
		TargetID: &nodeID,
		Success:  true,
		Details: map[string]string{
			"scope":      identifier,
			"scope_type": scopeType,
		},
	}, adminUser))
}

// ScopeMembersSet logs when the member list of an emission scope is replaced.
func (l *Logger) ScopeMembersSet(ctx context.Context, adminUser *models.User, clientID, nodeID primitive.ObjectID, identifier string, memberCount int) {
	l.Log(ctx, actor(audit.Event{
		Module:   audit.ModuleOrganization,
		Action:   audit.ActionScopeMembersSet,
		ClientID: &clientID,
		TargetID: &nodeID,
		Success:  true,
		Details: map[string]string{
			"scope":   identifier,
			"members": intToString(memberCount),
		},
	}, adminUser))
}

// --- Reporting and Reduction Project Events ---

// ReportGenerated logs when an emission summary is generated for a period.
func (l *Logger) ReportGenerated(ctx context.Context, adminUser *models.User, clientID primitive.ObjectID, period string) {
	l.Log(ctx, actor(audit.Event{
		Module:   audit.ModuleReports,
		Action:   audit.ActionReportGenerated,
		ClientID: &clientID,
		Success:  true,
		Details: map[string]string{
			"period": period,
		},
	}, adminUser))
}

// ReportExported logs when a summary is exported.
func (l *Logger) ReportExported(ctx context.Context, adminUser *models.User, clientID primitive.ObjectID, period, format string) {
	l.Log(ctx, actor(audit.Event{
		Module:   audit.ModuleReports,
		Action:   audit.ActionReportExported,
		ClientID: &clientID,
		Success:  true,
		Details: map[string]string{
			"period": period,
			"format": format,
		},
	}, adminUser))
}

// ProjectProgress logs when achieved reduction is recorded on a project.
func (l *Logger) ProjectProgress(ctx context.Context, adminUser *models.User, clientID, projectID primitive.ObjectID, achieved float64) {
	l.Log(ctx, actor(audit.Event{
		Module:   audit.ModuleReductionProjects,
		Action:   audit.ActionProjectProgress,
		ClientID: &clientID,
		TargetID: &projectID,
		Success:  true,
		Details: map[string]string{
			"achieved": floatToString(achieved),
		},
	}, adminUser))
}

// SettingsChanged logs when system or client settings are changed.
func (l *Logger) SettingsChanged(ctx context.Context, adminUser *models.User, clientID *primitive.ObjectID, fieldsChanged string) {
	l.Log(ctx, actor(audit.Event{
		Module:   audit.ModuleSettings,
		Action:   audit.ActionSettingsChanged,
		ClientID: clientID,
		Success:  true,
		Details: map[string]string{
			"fields_changed": fieldsChanged,
		},
	}, adminUser))
}

// --- Helper functions ---

func intToString(i int) string {
	return strconv.Itoa(i)
}

func floatToString(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
