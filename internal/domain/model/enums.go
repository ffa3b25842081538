package model

// OutcomeReason classifies why a login invocation ended the way it did.
type OutcomeReason string

const (
	ReasonSuccess        OutcomeReason = "success"
	ReasonNoConnectivity OutcomeReason = "no_connectivity"
	ReasonPortalRejected OutcomeReason = "portal_rejected"
	ReasonTransport      OutcomeReason = "transport_error"
)

// ServiceState is the lifecycle state of the scheduler.
type ServiceState string

const (
	StateStopped ServiceState = "stopped"
	StateRunning ServiceState = "running"
)
