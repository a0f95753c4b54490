package domain

// Action names a lifecycle step applied to a request.
type Action string

const (
	ActionCreate  Action = "create"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionStart   Action = "action"
	ActionClose   Action = "close"
)

// Gate identifies who may perform a transition.
type Gate int

const (
	// GateManagerOfAssignee admits only the assignee's current manager.
	GateManagerOfAssignee Gate = iota + 1
	// GateAssignee admits only the assignee.
	GateAssignee
)

// Transition is one edge of the request state machine.
type Transition struct {
	Action Action
	From   RequestStatus
	To     RequestStatus
	Gate   Gate
}

var transitions = map[Action]Transition{
	ActionApprove: {Action: ActionApprove, From: RequestStatusPending, To: RequestStatusApproved, Gate: GateManagerOfAssignee},
	ActionReject:  {Action: ActionReject, From: RequestStatusPending, To: RequestStatusRejected, Gate: GateManagerOfAssignee},
	ActionStart:   {Action: ActionStart, From: RequestStatusApproved, To: RequestStatusInProgress, Gate: GateAssignee},
	ActionClose:   {Action: ActionClose, From: RequestStatusInProgress, To: RequestStatusClosed, Gate: GateAssignee},
}

// TransitionFor returns the edge driven by action.
func TransitionFor(action Action) (Transition, bool) {
	t, ok := transitions[action]
	return t, ok
}

// Terminal reports whether no transition leaves s.
func (s RequestStatus) Terminal() bool {
	for _, t := range transitions {
		if t.From == s {
			return false
		}
	}
	return true
}

// Valid reports whether s is a known status.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected, RequestStatusInProgress, RequestStatusClosed:
		return true
	}
	return false
}

// Allows reports whether the request is in the status this transition starts from.
func (t Transition) Allows(req *Request) bool {
	return req != nil && req.Status == t.From
}

// Permits reports whether actorID passes the transition's gate for req.
func (t Transition) Permits(actorID string, req *Request) bool {
	if req == nil || actorID == "" {
		return false
	}
	switch t.Gate {
	case GateManagerOfAssignee:
		return IsManagerOfAssignee(actorID, req)
	case GateAssignee:
		return req.AssignedToID == actorID
	}
	return false
}

// IsManagerOfAssignee compares against the assignee's manager as currently loaded.
func IsManagerOfAssignee(actorID string, req *Request) bool {
	managerID := req.AssigneeManagerID()
	return actorID != "" && managerID != nil && *managerID == actorID
}

// CanView reports whether actorID may read req.
func CanView(actorID string, req *Request) bool {
	if req == nil || actorID == "" {
		return false
	}
	return req.CreatedByID == actorID || req.AssignedToID == actorID || IsManagerOfAssignee(actorID, req)
}
