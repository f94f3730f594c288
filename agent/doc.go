// Package agent routes questions between direct answers and
// knowledge-base-grounded answers with citations, keeping bounded
// per-session conversation history.
package agent
