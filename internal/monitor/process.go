package monitor

import (
	"os"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessPayload describes the resource use of the running host.
type ProcessPayload struct {
	CPUPercent float64 `json:"cpuPercent"`
	RSSBytes   uint64  `json:"rssBytes"`
	Threads    int32   `json:"threads"`
}

// processSampler reads resource use of the current process. A sampler that
// failed to attach reports nothing.
type processSampler struct {
	proc *process.Process
}

func newProcessSampler() *processSampler {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return &processSampler{}
	}
	return &processSampler{proc: p}
}

func (s *processSampler) sample() *ProcessPayload {
	if s.proc == nil {
		return nil
	}
	var out ProcessPayload
	if cpu, err := s.proc.CPUPercent(); err == nil {
		out.CPUPercent = cpu
	}
	if mem, err := s.proc.MemoryInfo(); err == nil && mem != nil {
		out.RSSBytes = mem.RSS
	}
	if n, err := s.proc.NumThreads(); err == nil {
		out.Threads = n
	}
	return &out
}
