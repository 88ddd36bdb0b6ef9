// SPDX-License-Identifier: MIT
package transport

import (
	"sync"
	"time"

	"audioviz/internal/dsp"
	applog "audioviz/internal/log"
)

// Publisher periodically polls a spectrum source and sends each frame
// through every configured transport. It runs in a goroutine managed
// by Start and Stop.
type Publisher struct {
	source     Source
	transports []Transport
	interval   time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // protects ticker and doneChan during Start/Stop

	seq   uint32
	frame Frame // reused between ticks; transports must not retain it
}

// NewPublisher wires a source to its transports. An interval <= 0
// defaults to 33ms, roughly a display refresh.
func NewPublisher(interval time.Duration, source Source, transports ...Transport) *Publisher {
	if interval <= 0 {
		interval = 33 * time.Millisecond
		applog.Warnf("publisher: invalid interval, defaulting to %s", interval)
	}
	return &Publisher{
		source:     source,
		transports: transports,
		interval:   interval,
		frame:      Frame{Bands: make([]float64, dsp.NumBands)},
	}
}

// Start begins periodic publishing. Safe to call more than once;
// subsequent calls are no-ops while running.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		return
	}
	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Debugf("publisher: started (interval %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.publishOnce()
			case <-doneChan:
				return
			}
		}
	}()
}

// publishOnce polls the source and fans one frame out. An absent
// spectrum (capture faulted or never started) publishes nothing.
func (p *Publisher) publishOnce() {
	spectrum, ok := p.source.Spectrum()
	if !ok {
		return
	}

	p.seq++
	p.frame.Seq = p.seq
	p.frame.Timestamp = time.Now().UnixNano()
	copy(p.frame.Bands, spectrum.Bands[:])
	p.frame.Peak = spectrum.Peak

	for _, t := range p.transports {
		if err := t.Send(&p.frame); err != nil {
			applog.Debugf("publisher: send failed: %v", err)
		}
	}
}

// Stop signals the goroutine to terminate and waits for it to exit.
// Safe to call more than once.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

// Close stops the publisher and closes every transport.
func (p *Publisher) Close() error {
	err := p.Stop()
	for _, t := range p.transports {
		if cerr := t.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
