// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package hiwheel

// The core timer/wheel operations never return an error: double-start,
// stop of an unlinked timer and a regressing Timeout call are all
// defined no-ops (see the docs of Start, Stop and Timeout). There is intentionally no
// error type exported here; callers that need validated setup (tick
// duration sanity, clock wiring) should look at the hiwheelclock
// collaborator package instead.
