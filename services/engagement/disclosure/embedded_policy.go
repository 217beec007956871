// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
This file bridges the build system and the runtime visibility logic. It uses the
Go embed package to bake disclosure_policy.yaml directly into the compiled
binary, so the disclosure rules are immutable at runtime and travel with the
executable.
*/

package disclosure

import (
	_ "embed"
)

// ProgressiveDisclosurePolicy holds the raw byte content of
// disclosure_policy.yaml, populated at compile time via the embed
// directive. Pass these bytes directly to yaml.Unmarshal.
//
//go:embed disclosure_policy.yaml
var ProgressiveDisclosurePolicy []byte
