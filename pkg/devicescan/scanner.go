// SPDX-FileCopyrightText: 2025 Circular Drive Initiative and cdi-grading-tool contributors
//
// SPDX-License-Identifier: Apache-2.0

package devicescan

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/circulardrives/cdi-grading-tool/pkg/smartctl"
)

// DefaultProbeTimeout bounds a single device probe. Diagnostic tools hold
// exclusive device locks, so a wedged drive must not stall the batch.
const DefaultProbeTimeout = 30 * time.Second

// Options control enumeration filtering and probe concurrency.
type Options struct {
	IgnoreATA  bool
	IgnoreNVMe bool
	IgnoreSCSI bool

	// Workers bounds concurrent probes; 0 means max(4, NumCPU).
	Workers int

	// ProbeTimeout bounds one probe; 0 means DefaultProbeTimeout.
	ProbeTimeout time.Duration

	// OnOutcome, when set, is invoked once per finished device. It may be
	// called from multiple probe workers concurrently.
	OnOutcome func(Outcome)
}

// Scanner discovers probeable devices and collects their telemetry with
// partial-failure tolerance: a batch of N candidates always yields exactly
// N outcomes, in enumeration order.
type Scanner struct {
	client *smartctl.Client
	opts   Options
}

func NewScanner(client *smartctl.Client, opts Options) *Scanner {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
		if opts.Workers < 4 {
			opts.Workers = 4
		}
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}
	return &Scanner{client: client, opts: opts}
}

// Scan enumerates and probes in one step.
func (s *Scanner) Scan(ctx context.Context) ([]Outcome, error) {
	candidates, err := s.Enumerate(ctx)
	if err != nil {
		return nil, err
	}
	return s.Probe(ctx, candidates), nil
}

// Enumerate lists candidate device paths, classified by protocol, with the
// ignore filters already applied. Devices the scan could not open carry a
// ScanErr and will surface as failures without being probed. Paths are
// de-duplicated here, which is what guarantees at most one in-flight probe
// per device path later.
func (s *Scanner) Enumerate(ctx context.Context) ([]Candidate, error) {
	scan, err := s.client.Scan(ctx)
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	seen := make(map[string]bool)

	for _, dev := range scan.Devices {
		// MegaRAID passthrough buses are not gradeable devices.
		if strings.HasPrefix(dev.Name, "/dev/bus") {
			continue
		}
		if seen[dev.Name] {
			continue
		}
		seen[dev.Name] = true

		if dev.OpenError != "" {
			candidates = append(candidates, Candidate{
				Path:     dev.Name,
				Protocol: ParseProtocol(dev.Protocol),
				ScanErr:  fmt.Errorf("open failed: %s", dev.OpenError),
			})
			continue
		}

		protocol := ParseProtocol(dev.Protocol)
		if protocol == ProtocolUnknown {
			protocol = s.detectProtocol(ctx, dev.Name)
		}

		if (protocol == ProtocolATA && s.opts.IgnoreATA) ||
			(protocol == ProtocolNVMe && s.opts.IgnoreNVMe) ||
			(protocol == ProtocolSCSI && s.opts.IgnoreSCSI) {
			log.Debug().Str("device", dev.Name).Str("protocol", string(protocol)).
				Msg("device skipped by ignore filter")
			continue
		}

		candidates = append(candidates, Candidate{Path: dev.Name, Protocol: protocol})
	}

	log.Info().Int("candidates", len(candidates)).Msg("device enumeration finished")
	return candidates, nil
}

// detectProtocol runs an identity-only probe for devices the scan left
// unclassified.
func (s *Scanner) detectProtocol(ctx context.Context, path string) Protocol {
	probeCtx, cancel := context.WithTimeout(ctx, s.opts.ProbeTimeout)
	defer cancel()

	out, err := s.client.Probe(probeCtx, path)
	if err != nil {
		log.Warn().Err(err).Str("device", path).Msg("protocol detection probe failed")
		return ProtocolUnknown
	}
	return ParseProtocol(out.Device.Protocol)
}

// Probe collects telemetry for every candidate on a bounded worker pool and
// returns one outcome per candidate, preserving candidate order. Candidates
// that already failed at scan time are converted to failure outcomes without
// touching the device. Cancelling the context stops new probes from starting;
// probes already in flight run to their own timeout.
func (s *Scanner) Probe(ctx context.Context, candidates []Candidate) []Outcome {
	outcomes := make([]Outcome, len(candidates))

	sem := make(chan struct{}, s.opts.Workers)
	var wg sync.WaitGroup

	for i, cand := range candidates {
		if cand.ScanErr != nil {
			outcomes[i] = Outcome{
				Identity: Identity{Path: cand.Path, Protocol: cand.Protocol},
				Err:      cand.ScanErr,
			}
			s.emit(outcomes[i])
			continue
		}

		// Cooperative cancellation point: blocked here until a worker
		// slot frees up or the batch is cancelled.
		select {
		case <-ctx.Done():
			outcomes[i] = Outcome{
				Identity: Identity{Path: cand.Path, Protocol: cand.Protocol},
				Err:      fmt.Errorf("probe not started: %w", ctx.Err()),
			}
			s.emit(outcomes[i])
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, cand Candidate) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = s.probeOne(ctx, cand)
			s.emit(outcomes[i])
		}(i, cand)
	}

	wg.Wait()
	return outcomes
}

func (s *Scanner) probeOne(ctx context.Context, cand Candidate) Outcome {
	probeCtx, cancel := context.WithTimeout(ctx, s.opts.ProbeTimeout)
	defer cancel()

	out, err := s.client.Collect(probeCtx, cand.Path)
	if err != nil {
		log.Warn().Err(err).Str("device", cand.Path).Msg("device probe failed")
		return Outcome{
			Identity: Identity{Path: cand.Path, Protocol: cand.Protocol},
			Err:      err,
		}
	}

	protocol := cand.Protocol
	if reported := ParseProtocol(out.Device.Protocol); reported != ProtocolUnknown {
		protocol = reported
	}

	return Outcome{
		Identity: IdentityFromOutput(cand.Path, protocol, out),
		Raw:      out,
	}
}

func (s *Scanner) emit(o Outcome) {
	if s.opts.OnOutcome != nil {
		s.opts.OnOutcome(o)
	}
}
