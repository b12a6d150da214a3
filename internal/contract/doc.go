// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package contract provides validation constants and utilities shared by the
// pipeline composer and abstract server.
//
// # Pipeline Expression Limits
//
// The composer enforces a soft limit on the raw pipeline expression string
// before parsing, and on the number of symbols accepted by a single
// crossref-lookup/jumpref-lookup batch, to bound memory use against
// adversarial input:
//
//	limit := contract.PipelineScriptSoftLimitBytes()
//	result := contract.ValidatePipelineScript(expr)
//	if !result.OK {
//	    return ixerrors.BadInputf(result.Message, "shorten the pipeline expression", "pipeline rejected")
//	}
//
// Limits are overridable via environment variables (XREF_SOFT_LIMIT_BYTES,
// XREF_MAX_SYMBOLS_PER_BATCH) for environments with different memory
// constraints, mirroring the teacher's CIE_SOFT_LIMIT_BYTES override.
package contract
