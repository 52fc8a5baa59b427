// ABOUTME: Converted audio block with partial-consumption offset
// ABOUTME: The only pipeline entity drained in pieces by the device callback
package pipeline

// Block is one chunk of device-native interleaved bytes. The device
// callback may drain it across several fills; the offset tracks how
// far consumption has advanced.
type Block struct {
	Data []byte
	off  int
}

// NewBlock wraps converted bytes in a block.
func NewBlock(data []byte) *Block {
	return &Block{Data: data}
}

// Remaining returns the unconsumed byte count.
func (b *Block) Remaining() int {
	return len(b.Data) - b.off
}

// Consume returns the next n unconsumed bytes and advances the offset.
// n must not exceed Remaining.
func (b *Block) Consume(n int) []byte {
	out := b.Data[b.off : b.off+n]
	b.off += n
	return out
}
