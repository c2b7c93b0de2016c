// Package pool recycles the fixed-size byte blocks that incoming and
// outcoming buffers move between the network and their byte queues.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package pool
