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

// Package treeconfig resolves which server/tree a pipeline targets and
// loads the optional per-tree YAML configuration (spec §4.6/§6).
package treeconfig

import (
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/xref/internal/ixerrors"
)

// Per spec §6, SEARCHFOX_SERVER/SEARCHFOX_TREE are the documented contract;
// XREF_SERVER/XREF_TREE are accepted as equivalent internal aliases.
const (
	EnvServerPrimary = "SEARCHFOX_SERVER"
	EnvTreePrimary   = "SEARCHFOX_TREE"
	EnvServerAlias   = "XREF_SERVER"
	EnvTreeAlias     = "XREF_TREE"
)

// Target names which backend and tree a pipeline should run against, before
// the backend itself has been constructed.
type Target struct {
	// Server is either a URL (remote backend) or a local index root path.
	Server string
	// Tree is the tree name, used by remote backends to select a base URL
	// segment and by local backends purely for display/logging.
	Tree string
}

// Resolve determines the effective (server, tree) pair. flagServer/flagTree
// are the values explicitly parsed from the first pipeline sub-argv (spec
// §4.6); an empty string means "not specified on the command line" and
// falls through to the environment.
func Resolve(flagServer, flagTree string) Target {
	t := Target{Server: flagServer, Tree: flagTree}
	if t.Server == "" {
		t.Server = firstNonEmptyEnv(EnvServerPrimary, EnvServerAlias)
	}
	if t.Tree == "" {
		t.Tree = firstNonEmptyEnv(EnvTreePrimary, EnvTreeAlias)
	}
	return t
}

func firstNonEmptyEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// IsRemote reports whether server parses as an absolute URL, which per spec
// §4.6 is how the composer distinguishes the remote backend from a local
// index root.
func IsRemote(server string) bool {
	u, err := url.Parse(server)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// Tree is the decoded per-tree YAML configuration, e.g.
// "<index_root>/.xref/tree.yaml". All fields are optional; a tree with no
// config file uses the zero value.
type Tree struct {
	// DisplayName is a human-readable tree name. Rendered output does not
	// read it; render shows the backend's tree name.
	DisplayName string `yaml:"display_name"`
	// TemplatesDir names a templates directory relative to the index root.
	// render/batch-render do not read it; they use their built-in templates.
	TemplatesDir string `yaml:"templates_dir"`
	// GitRemoteURL is used to build "view on upstream" links; not
	// interpreted by the pipeline engine itself.
	GitRemoteURL string `yaml:"git_remote_url"`
}

const configRelPath = ".xref/tree.yaml"

// Load reads the optional per-tree YAML config under indexRoot. A missing
// file is not an error: it yields the zero-value Tree.
func Load(indexRoot string) (Tree, error) {
	path := filepath.Join(indexRoot, configRelPath)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Tree{}, nil
		}
		return Tree{}, ixerrors.Config("cannot read tree config %q: %v", path, err)
	}

	var cfg Tree
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Tree{}, ixerrors.Config("malformed tree config %q: %v", path, err)
	}
	return cfg, nil
}
