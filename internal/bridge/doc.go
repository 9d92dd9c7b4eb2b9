// Package bridge adapts host-runtime method calls on the "doh_api_client"
// channel to the dispatcher and reports results back in the host's
// success/error convention.
//
// The calls are makeGetRequest, makePostRequest, makePutRequest,
// makePatchRequest and makeDeleteRequest, each taking the arguments url,
// dohProvider, headers and body. Failures are reported with a per-verb code
// such as GET_API_ERROR; missing url or dohProvider is INVALID_ARGS.
//
// Serve exposes the same contract as JSON lines over a reader/writer pair so
// that a host process can drive dohapi over stdio.
package bridge
