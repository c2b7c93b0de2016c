// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Collaborator contracts for the flow-controlled buffer layer.

package api

// Receiver reads up to len(dst) bytes (at most one block) into dst.
// bytesReceived == 0 with errno == 0 means EOF/connection-reset. errno > 0
// means a transport error and bytesReceived is ignored.
type Receiver func(dst []byte) (bytesReceived int, errno int)

// Transmitter writes up to len(src) bytes (at most one block) from src.
// bytesTransmitted == 0 with errno == 0 means EOF/reset. errno > 0 means a
// transport error.
type Transmitter func(src []byte) (bytesTransmitted int, errno int)

// BufferHandler is the single-shot task handler installed by
// IncomingBuffer.Setup / OutcomingBuffer.Setup. It fires at most once per
// Setup call, carrying the revents that satisfied (or failed) the task.
type BufferHandler func(revents EventKind)

// FlowControl arms (resume=true) or disarms (resume=false) the readiness
// registration for a buffer's operative direction. It is supplied by the
// layer that owns the buffer's underlying IoWatcher (normally the
// Dispatcher); its return value reports whether the request was honored.
type FlowControl func(resume bool) bool
