// Package blog holds the request-handling core of quill: the authorization
// gate, payload validation and the five blog operations. It knows nothing
// about HTTP; callers pass the resolved caller identity into every operation
// and translate the returned errors at their own boundary.
package blog
