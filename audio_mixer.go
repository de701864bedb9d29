// audio_mixer.go - Four channel 8 bit PCM mixer

/*
Polygon Engine
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PolygonEngine
License: GPLv3 or later
*/

package main

import "sync"

const (
	mixerChannels  = 4
	maxVolume      = 0x3F
	volumeDivisor  = 0x40
	soundHeaderLen = 8
)

// MixerChunk is a signed 8 bit sample inside the arena. When loopLen is not
// zero playback wraps from loopPos+loopLen back to loopPos forever.
type MixerChunk struct {
	mem     []byte
	data    int // arena offset of the first sample
	len     uint16
	loopPos uint16
	loopLen uint16
}

func (c *MixerChunk) sample(pos uint32) int {
	i := c.data + int(pos)
	if i < 0 || i >= len(c.mem) {
		return 0
	}
	return int(int8(c.mem[i]))
}

type mixerChannel struct {
	active bool
	volume uint8
	pos    uint32 // 24.8 fixed point
	inc    uint32
	chunk  MixerChunk
}

// Mixer sums the four channels into the output buffer. Every channel access
// holds mu; the audio device goroutine and the interpreter both call in.
type Mixer struct {
	mu       sync.Mutex
	channels [mixerChannels]mixerChannel
	rate     int
}

func NewMixer(sampleRate int) *Mixer {
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}
	return &Mixer{rate: sampleRate}
}

func (m *Mixer) SampleRate() int {
	return m.rate
}

func (m *Mixer) PlayChannel(channel int, chunk MixerChunk, freq uint16, volume uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := &m.channels[channel&(mixerChannels-1)]
	ch.active = true
	ch.volume = volume
	ch.chunk = chunk
	ch.pos = 0
	ch.inc = (uint32(freq) << 8) / uint32(m.rate)
}

func (m *Mixer) StopChannel(channel int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels[channel&(mixerChannels-1)].active = false
}

func (m *Mixer) SetChannelVolume(channel int, volume uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels[channel&(mixerChannels-1)].volume = volume
}

func (m *Mixer) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.channels {
		m.channels[i].active = false
	}
}

// ActiveChannels reports which channels are playing.
func (m *Mixer) ActiveChannels() [mixerChannels]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out [mixerChannels]bool
	for i := range m.channels {
		out[i] = m.channels[i].active
	}
	return out
}

func addClamp(a, b int) int8 {
	s := a + b
	if s < -128 {
		return -128
	}
	if s > 127 {
		return 127
	}
	return int8(s)
}

// FillBuffer mixes len(buf) mono samples.
func (m *Mixer) FillBuffer(buf []int8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range buf {
		buf[i] = 0
	}
	for c := range m.channels {
		ch := &m.channels[c]
		if !ch.active {
			continue
		}
		for i := range buf {
			p1 := ch.pos >> 8
			ilc := int(ch.pos & 0xFF)
			ch.pos += ch.inc
			var p2 uint32
			if ch.chunk.loopLen != 0 {
				if p1 >= uint32(ch.chunk.loopPos)+uint32(ch.chunk.loopLen)-1 {
					p2 = uint32(ch.chunk.loopPos)
					ch.pos = p2 << 8
				} else {
					p2 = p1 + 1
				}
			} else {
				if int(p1) >= int(ch.chunk.len)-1 {
					ch.active = false
					break
				}
				p2 = p1 + 1
			}
			b1 := ch.chunk.sample(p1)
			b2 := ch.chunk.sample(p2)
			b := int(int8((b1*(0xFF-ilc) + b2*ilc) >> 8))
			buf[i] = addClamp(int(buf[i]), b*int(ch.volume)/volumeDivisor)
		}
	}
}

// mixerChannelState is the saved form of one channel.
type mixerChannelState struct {
	active  bool
	volume  uint8
	pos     uint32
	inc     uint32
	data    uint32
	len     uint16
	loopPos uint16
	loopLen uint16
}

func (m *Mixer) captureState() [mixerChannels]mixerChannelState {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out [mixerChannels]mixerChannelState
	for i := range m.channels {
		ch := &m.channels[i]
		out[i] = mixerChannelState{
			active:  ch.active,
			volume:  ch.volume,
			pos:     ch.pos,
			inc:     ch.inc,
			data:    uint32(ch.chunk.data),
			len:     ch.chunk.len,
			loopPos: ch.chunk.loopPos,
			loopLen: ch.chunk.loopLen,
		}
	}
	return out
}

func (m *Mixer) restoreState(st [mixerChannels]mixerChannelState, mem []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.channels {
		s := &st[i]
		m.channels[i] = mixerChannel{
			active: s.active,
			volume: s.volume,
			pos:    s.pos,
			inc:    s.inc,
			chunk: MixerChunk{
				mem:     mem,
				data:    int(s.data),
				len:     s.len,
				loopPos: s.loopPos,
				loopLen: s.loopLen,
			},
		}
	}
}
