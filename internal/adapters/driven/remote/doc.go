// Package remote implements the RemoteEndpoint and RecordCodec ports over
// the marginalia service's REST API. It owns transport concerns only:
// authentication, proactive throttling, rate-limit signals and the mapping
// of HTTP failures onto the engine's error taxonomy. It never retries;
// retry policy lives in the core services.
package remote
