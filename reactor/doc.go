// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor binds the OS readiness API (epoll on Linux) to small
// integer tokens. It never owns sockets: a registration is only a token
// and the descriptor needed to remove it again.
package reactor
