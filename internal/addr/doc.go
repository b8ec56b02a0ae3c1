// File: internal/addr/doc.go
// Package addr
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Address resolution and bind-filter matching. Turns textual host/port pairs
// into ordered candidate lists under the process-wide stack mode, and decides
// which passive candidates a filtered bind may use. No sockets are touched here.

package addr
