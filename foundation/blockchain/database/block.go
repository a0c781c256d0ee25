package database

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/siertrichain/blockchain/foundation/blockchain/mining"
)

// RootHash is the previous hash recorded by the genesis block.
const RootHash = "0"

// =============================================================================

// Block represents a group of transactions batched together with the leaf
// triangle that was mined for it.
type Block struct {
	Index        uint64        `json:"index"`         // Position in the chain, genesis is 0.
	Timestamp    uint64        `json:"timestamp"`     // Unix seconds when the block was created.
	Transactions []string      `json:"transactions"`  // Opaque transaction payloads.
	PrevHash     string        `json:"previous_hash"` // Hash of the parent block, RootHash for genesis.
	Hash         string        `json:"hash"`          // Digest over the fields above plus the mining address.
	MiningResult mining.Result `json:"mining_result"` // Proof of the geometric work.
}

// NewBlock constructs the sealed successor of prev holding the specified
// transactions and mining result. A zero timestamp takes the current time.
func NewBlock(prev Block, txs []string, result mining.Result, timestamp uint64) Block {
	if timestamp == 0 {
		timestamp = uint64(time.Now().UTC().Unix())
	}

	b := Block{
		Index:        prev.Index + 1,
		Timestamp:    timestamp,
		Transactions: txs,
		PrevHash:     prev.Hash,
		MiningResult: result,
	}
	b.Seal()

	return b
}

// HashInput returns the exact text the block hash is computed over: index,
// timestamp, the transaction list, the previous hash and the mining address
// digits, concatenated with no separators.
func (b Block) HashInput() string {
	var sb strings.Builder

	sb.WriteString(strconv.FormatUint(b.Index, 10))
	sb.WriteString(strconv.FormatUint(b.Timestamp, 10))
	sb.WriteString(formatTransactions(b.Transactions))
	sb.WriteString(b.PrevHash)
	sb.WriteString(b.MiningResult.Address.String())

	return sb.String()
}

// CalculateHash returns the lowercase hex SHA-256 digest of HashInput. The
// chaos factor and triangle coordinates are not covered.
func (b Block) CalculateHash() string {
	sum := sha256.Sum256([]byte(b.HashInput()))
	return hex.EncodeToString(sum[:])
}

// Seal records the calculated hash on the block. Pointer semantics are used
// since the block is being modified.
func (b *Block) Seal() {
	b.Hash = b.CalculateHash()
}

// IsSealed reports whether the recorded hash matches the block contents.
func (b Block) IsSealed() bool {
	return b.Hash != "" && b.Hash == b.CalculateHash()
}

// Depth returns the subdivision depth the block was mined at.
func (b Block) Depth() int {
	return b.MiningResult.Depth()
}

// String implements the fmt.Stringer interface for logging.
func (b Block) String() string {
	return fmt.Sprintf("blk[%d] depth[%d] txs[%d] hash[%s]", b.Index, b.Depth(), len(b.Transactions), b.Hash)
}

// =============================================================================

// formatTransactions renders the list as ["a", "b"], quoting and escaping
// each element. An empty or nil list renders as [].
func formatTransactions(txs []string) string {
	var sb strings.Builder

	sb.WriteByte('[')
	for i, tx := range txs {
		if i > 0 {
			sb.WriteString(", ")
		}
		quoteTo(&sb, tx)
	}
	sb.WriteByte(']')

	return sb.String()
}

// quoteTo writes s wrapped in double quotes. Quotes, backslashes and the
// common control characters use their short escapes. Any other rune that is
// not graphic is written as \u{hex}, and every byte that is not valid UTF-8
// is written as \x{hex}, so distinct strings never quote the same.
func quoteTo(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			fmt.Fprintf(sb, `\x{%02x}`, s[0])
			s = s[size:]
			continue
		}
		s = s[size:]

		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case 0:
			sb.WriteString(`\0`)
		default:
			if !unicode.IsGraphic(r) {
				fmt.Fprintf(sb, `\u{%x}`, r)
				continue
			}
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
}
