// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging builds the [log/slog] loggers used by procedures and their
// callers.
//
// A [Logger] wraps a configured [slog.Logger] (JSON or text output, a level
// that can be changed at runtime, service metadata, redaction of sensitive
// attributes). [WithTrace] adds OpenTelemetry trace and span IDs to log
// entries so invocation logs can be correlated with the span created for the
// same call. [ParseFormat] and [ParseLevel] validate configuration values.
//
// Basic usage:
//
//	logger := logging.MustNew(
//	    logging.WithJSONHandler(),
//	    logging.WithLevel(logging.LevelDebug),
//	    logging.WithServiceName("bookstore"),
//	)
//	base := procedure.Init[*Store](procedure.WithLogger(logger.Logger()))
//
// Tests can use [NewTestHelper] to capture and inspect entries.
package logging
