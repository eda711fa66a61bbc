package requests

import (
	"net/http"

	"livedash/pkg/types"
)

// Backend endpoint names. Notifications for each wrapper are delivered under
// these names.
const (
	EndpointCounts      = "counts"
	EndpointDiscussions = "discussions"
	EndpointMessages    = "messages"
	EndpointTweets      = "tweets"
	EndpointAnnotations = "annotations"
	EndpointKeywords    = "keywords"
	EndpointUsers       = "users"
	EndpointAuth        = "auth"
)

// OverviewChannel sequences the overview timeline's counts separately from the
// per-query ones.
const OverviewChannel = "counts-overview"

// perQuery names a channel for requests whose results are kept per query, so
// that requests for different queries never supersede each other.
func perQuery(endpoint string, params types.Params) string {
	return endpoint + "-" + params.String("query_id")
}

func (m *Manager) payload(method, endpoint, channel string, params types.Params) *Call {
	return m.Request(method, endpoint, Options{
		Params:      params,
		PostProcess: ExtractPath(PayloadPath),
		Channel:     channel,
	})
}

// Counts requests binned tweet counts for the query named by params["query_id"].
func (m *Manager) Counts(params types.Params) *Call {
	return m.payload(http.MethodGet, EndpointCounts, perQuery(EndpointCounts, params), params)
}

// OverviewCounts requests counts for the overview timeline.
func (m *Manager) OverviewCounts(params types.Params) *Call {
	return m.payload(http.MethodGet, EndpointCounts, OverviewChannel, params)
}

func (m *Manager) Discussions(params types.Params) *Call {
	return m.payload(http.MethodGet, EndpointDiscussions, "", params)
}

// Messages requests the messages of one discussion.
func (m *Manager) Messages(params types.Params) *Call {
	return m.payload(http.MethodGet, EndpointMessages, "", params)
}

// SendMessage posts a message. The response is the updated message list and is
// sequenced with Messages.
func (m *Manager) SendMessage(params types.Params) *Call {
	return m.payload(http.MethodPost, EndpointMessages, "", params)
}

// Tweets requests tweets matching the query named by params["query_id"].
func (m *Manager) Tweets(params types.Params) *Call {
	return m.payload(http.MethodGet, EndpointTweets, perQuery(EndpointTweets, params), params)
}

func (m *Manager) Annotations(params types.Params) *Call {
	return m.payload(http.MethodGet, EndpointAnnotations, "", params)
}

// Annotate posts an annotation; the response is the updated annotation list.
func (m *Manager) Annotate(params types.Params) *Call {
	return m.payload(http.MethodPost, EndpointAnnotations, "", params)
}

func (m *Manager) Keywords(params types.Params) *Call {
	return m.payload(http.MethodGet, EndpointKeywords, "", params)
}

// Users requests the top users for the query named by params["query_id"].
func (m *Manager) Users(params types.Params) *Call {
	return m.payload(http.MethodGet, EndpointUsers, perQuery(EndpointUsers, params), params)
}

// Account is the signed-in user as reported by the auth endpoint. It is nil when
// nobody is signed in.
type Account map[string]any

// Auth asks the backend who is signed in. Results carry an Account.
func (m *Manager) Auth(params types.Params) *Call {
	return m.Request(http.MethodGet, EndpointAuth, Options{
		Params:      params,
		PostProcess: DecodePath[Account](PayloadPath),
	})
}
