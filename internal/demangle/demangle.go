// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package demangle shells out to c++filt to turn a mangled C++ symbol into a
// human-readable name, for use as identstore's display-name hook (spec
// §4.3). Any failure to run or a non-zero exit passes the symbol through
// unchanged; demangling is a display nicety, never a correctness dependency.
package demangle

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// Name runs "c++filt --no-params <name>" and returns its trimmed stdout, or
// name unchanged if c++filt is missing, times out, or exits non-zero.
func Name(name string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "c++filt", "--no-params", name)
	out, err := cmd.Output()
	if err != nil {
		return name
	}
	demangled := strings.TrimSpace(string(out))
	if demangled == "" {
		return name
	}
	return demangled
}
