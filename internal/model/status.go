package model

// TransportResponse is the response of a failed remote call as seen by the
// form. Data holds the raw JSON body, which usually carries "name" and
// "message" members.
type TransportResponse struct {
	Status     int    `json:"status"`
	StatusText string `json:"statusText"`
	Data       []byte `json:"data,omitempty"`
}

// ActionError is the error facet of an ActionStatus.
type ActionError struct {
	Response *TransportResponse `json:"response,omitempty"`
}

// ActionStatus is the state of the last create/update dispatched for one
// action. The zero value means "idle".
type ActionStatus struct {
	Pending bool `json:"pending"`
	// Response is the record echoed back by a successful write.
	Response *Value `json:"response,omitempty"`
	// ID is the storage identifier the action was addressed to.
	ID  string       `json:"id,omitempty"`
	Err *ActionError `json:"error,omitempty"`
}

// Succeeded reports whether the action finished with a response.
func (status ActionStatus) Succeeded() bool { return status.Response != nil }

// Failed reports whether the action finished with an error.
func (status ActionStatus) Failed() bool { return status.Err != nil }
