package common

// CircularBuffer implements a circular buffer for streaming audio processing
type CircularBuffer struct {
	buffer   []float64
	size     int
	writePos int
	readPos  int
	count    int
}

// NewCircularBuffer creates a new circular buffer
func NewCircularBuffer(size int) *CircularBuffer {
	return &CircularBuffer{
		buffer: make([]float64, size),
		size:   size,
	}
}

// Write adds data to the buffer, overwriting the oldest samples when full
func (cb *CircularBuffer) Write(data []float64) int {
	written := 0
	for _, sample := range data {
		if cb.count < cb.size {
			cb.buffer[cb.writePos] = sample
			cb.writePos = (cb.writePos + 1) % cb.size
			cb.count++
			written++
		} else {
			// Buffer full, overwrite oldest data
			cb.buffer[cb.writePos] = sample
			cb.writePos = (cb.writePos + 1) % cb.size
			cb.readPos = (cb.readPos + 1) % cb.size
			written++
		}
	}
	return written
}

// Read reads data from the buffer
func (cb *CircularBuffer) Read(data []float64) int {
	read := 0
	for i := range data {
		if cb.count > 0 {
			data[i] = cb.buffer[cb.readPos]
			cb.readPos = (cb.readPos + 1) % cb.size
			cb.count--
			read++
		} else {
			break
		}
	}
	return read
}

// Peek reads data without consuming it
func (cb *CircularBuffer) Peek(data []float64) int {
	read := 0
	pos := cb.readPos
	remaining := cb.count

	for i := range data {
		if remaining > 0 {
			data[i] = cb.buffer[pos]
			pos = (pos + 1) % cb.size
			remaining--
			read++
		} else {
			break
		}
	}
	return read
}

// Available returns number of samples available for reading
func (cb *CircularBuffer) Available() int {
	return cb.count
}

// Space returns available space for writing
func (cb *CircularBuffer) Space() int {
	return cb.size - cb.count
}

// Clear empties the buffer
func (cb *CircularBuffer) Clear() {
	cb.writePos = 0
	cb.readPos = 0
	cb.count = 0
}

// IsFull returns true if buffer is full
func (cb *CircularBuffer) IsFull() bool {
	return cb.count == cb.size
}

// IsEmpty returns true if buffer is empty
func (cb *CircularBuffer) IsEmpty() bool {
	return cb.count == 0
}

// SlidingWindow implements a sliding window for frame-based processing
type SlidingWindow struct {
	buffer     []float64
	windowSize int
	hopSize    int
	writePos   int
}

// NewSlidingWindow creates a new sliding window
func NewSlidingWindow(windowSize, hopSize int) *SlidingWindow {
	return &SlidingWindow{
		buffer:     make([]float64, windowSize),
		windowSize: windowSize,
		hopSize:    hopSize,
	}
}

// AddSamples adds samples and returns frames when ready
func (sw *SlidingWindow) AddSamples(samples []float64) [][]float64 {
	var frames [][]float64

	for _, sample := range samples {
		sw.buffer[sw.writePos] = sample
		sw.writePos++

		// Check if we have a complete frame
		if sw.writePos >= sw.windowSize {
			// Extract frame
			frame := make([]float64, sw.windowSize)
			copy(frame, sw.buffer)
			frames = append(frames, frame)

			// Slide the window
			if sw.hopSize < sw.windowSize {
				// Overlap: shift buffer left by hopSize
				copy(sw.buffer, sw.buffer[sw.hopSize:])
				sw.writePos = sw.windowSize - sw.hopSize
			} else {
				// No overlap: reset buffer
				sw.writePos = 0
			}
		}
	}

	return frames
}

// Reset clears the sliding window
func (sw *SlidingWindow) Reset() {
	sw.writePos = 0
	for i := range sw.buffer {
		sw.buffer[i] = 0.0
	}
}

// GetWindowSize returns the window size
func (sw *SlidingWindow) GetWindowSize() int {
	return sw.windowSize
}

// GetHopSize returns the hop size
func (sw *SlidingWindow) GetHopSize() int {
	return sw.hopSize
}
