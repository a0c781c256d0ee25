package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/siertrichain/blockchain/foundation/blockchain/database"
	"github.com/siertrichain/blockchain/foundation/blockchain/fractal"
	"github.com/siertrichain/blockchain/foundation/blockchain/geometry"
	"github.com/siertrichain/blockchain/foundation/blockchain/mining"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const timestamp = 1700000000

// =============================================================================

func Test_HashInput(t *testing.T) {
	type table struct {
		name  string
		block database.Block
		input string
		hash  string
	}

	tt := []table{
		{
			name: "basic",
			block: database.Block{
				Index:        1,
				Timestamp:    timestamp,
				Transactions: []string{"tx1", "tx2"},
				PrevHash:     "abc",
				MiningResult: mining.Result{Address: fractal.Address{0, 1, 2}},
			},
			input: `11700000000["tx1", "tx2"]abc012`,
			hash:  "e02254b549b89106687638593d0bc8c02581e4d0da10ad8cab3f548061ca590a",
		},
		{
			name: "empty",
			block: database.Block{
				Index:     0,
				Timestamp: timestamp,
				PrevHash:  database.RootHash,
			},
			input: `01700000000[]0`,
			hash:  "e34b8b436a24fd41ef9229e67442b79b02fef680b04c3d757e06d955410b095a",
		},
		{
			name: "escaped",
			block: database.Block{
				Index:        2,
				Timestamp:    5,
				Transactions: []string{`a"b`, "c\\d", "e\nf"},
				PrevHash:     "p",
				MiningResult: mining.Result{Address: fractal.Address{3}},
			},
			input: `25["a\"b", "c\\d", "e\nf"]p3`,
		},
		{
			name: "invalid utf8",
			block: database.Block{
				Index:        2,
				Timestamp:    5,
				Transactions: []string{"pay\xff", "pay\xfe", "\xe2\x82"},
				PrevHash:     "p",
				MiningResult: mining.Result{Address: fractal.Address{3}},
			},
			input: `25["pay\x{ff}", "pay\x{fe}", "\x{e2}\x{82}"]p3`,
		},
		{
			name: "non printable",
			block: database.Block{
				Index:        2,
				Timestamp:    5,
				Transactions: []string{"soft\u00adhyphen", "bell\a", "caf\u00e9 \u4e16"},
				PrevHash:     "p",
				MiningResult: mining.Result{Address: fractal.Address{3}},
			},
			input: "25[\"soft\\u{ad}hyphen\", \"bell\\u{7}\", \"caf\u00e9 \u4e16\"]p3",
		},
	}

	t.Log("Given the need to hash blocks consistently.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling block %q.", testID, tst.name)
			{
				f := func(t *testing.T) {
					got := tst.block.HashInput()
					if got != tst.input {
						t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, got)
						t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.input)
						t.Fatalf("\t%s\tTest %d:\tShould produce the expected hash input.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould produce the expected hash input.", success, testID)

					hash := tst.block.CalculateHash()
					if len(hash) != 64 {
						t.Fatalf("\t%s\tTest %d:\tShould produce a 64 character hash: %d", failed, testID, len(hash))
					}
					t.Logf("\t%s\tTest %d:\tShould produce a 64 character hash.", success, testID)

					if tst.hash != "" && hash != tst.hash {
						t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, hash)
						t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.hash)
						t.Fatalf("\t%s\tTest %d:\tShould produce the expected digest.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould produce the expected digest.", success, testID)

					if hash != tst.block.CalculateHash() {
						t.Fatalf("\t%s\tTest %d:\tShould be deterministic.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould be deterministic.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_HashInvalidUTF8(t *testing.T) {
	t.Log("Given the need to tell apart transactions holding invalid UTF-8.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen two transactions differ only in an invalid byte.", testID)
		{
			a := database.Block{Index: 1, Timestamp: timestamp, Transactions: []string{"pay\xff"}, PrevHash: "p"}
			b := database.Block{Index: 1, Timestamp: timestamp, Transactions: []string{"pay\xfe"}, PrevHash: "p"}
			c := database.Block{Index: 1, Timestamp: timestamp, Transactions: []string{"pay\ufffd"}, PrevHash: "p"}

			if a.HashInput() == b.HashInput() || a.CalculateHash() == b.CalculateHash() {
				t.Fatalf("\t%s\tTest %d:\tShould hash the invalid bytes differently.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould hash the invalid bytes differently.", success, testID)

			if a.CalculateHash() == c.CalculateHash() {
				t.Fatalf("\t%s\tTest %d:\tShould not confuse an invalid byte with the replacement rune.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not confuse an invalid byte with the replacement rune.", success, testID)
		}
	}
}

func Test_HashCoverage(t *testing.T) {
	base := database.Block{
		Index:        4,
		Timestamp:    timestamp,
		Transactions: []string{"tx"},
		PrevHash:     "prev",
		MiningResult: mining.Result{Address: fractal.Address{1, 2}},
	}
	base.Seal()

	type table struct {
		name    string
		mutate  func(b *database.Block)
		changes bool
	}

	tt := []table{
		{"index", func(b *database.Block) { b.Index++ }, true},
		{"timestamp", func(b *database.Block) { b.Timestamp++ }, true},
		{"transactions", func(b *database.Block) { b.Transactions = []string{"other"} }, true},
		{"previous", func(b *database.Block) { b.PrevHash = "other" }, true},
		{"address", func(b *database.Block) { b.MiningResult.Address = fractal.Address{1, 3} }, true},
		{"triangle", func(b *database.Block) { b.MiningResult.Triangle = geometry.Genesis() }, false},
		{"chaos", func(b *database.Block) { f := 0.25; b.MiningResult.ChaosFactor = &f }, false},
	}

	t.Log("Given the need to know which fields the block hash covers.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen changing the %s.", testID, tst.name)
			{
				f := func(t *testing.T) {
					b := base
					b.Transactions = append([]string(nil), base.Transactions...)
					tst.mutate(&b)

					changed := b.CalculateHash() != base.Hash
					if changed != tst.changes {
						t.Fatalf("\t%s\tTest %d:\tShould report hash changed as %v, got %v.", failed, testID, tst.changes, changed)
					}
					t.Logf("\t%s\tTest %d:\tShould report hash changed as %v.", success, testID, tst.changes)

					if b.IsSealed() == tst.changes {
						t.Fatalf("\t%s\tTest %d:\tShould report the seal correctly.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould report the seal correctly.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_Blockchain(t *testing.T) {
	t.Log("Given the need to construct and extend a chain.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen mining genesis with a generous threshold.", testID)
		{
			bc, err := database.NewBlockchain(context.Background(), database.GenesisConfig{
				Threshold: decimal.RequireFromString("0.5"),
				Timestamp: timestamp,
			})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mine genesis: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to mine genesis.", success, testID)

			genesis := bc.Genesis()
			if genesis.Index != 0 || genesis.PrevHash != database.RootHash || !genesis.IsSealed() {
				t.Fatalf("\t%s\tTest %d:\tShould have a sealed genesis at index 0 linked to the root: %s", failed, testID, genesis)
			}
			t.Logf("\t%s\tTest %d:\tShould have a sealed genesis at index 0 linked to the root.", success, testID)

			if genesis.Depth() != 1 || genesis.MiningResult.Address.String() != "0" {
				t.Fatalf("\t%s\tTest %d:\tShould mine the first leaf at depth 1: %s", failed, testID, genesis.MiningResult.Address)
			}
			t.Logf("\t%s\tTest %d:\tShould mine the first leaf at depth 1.", success, testID)

			const exp = "b117605a46c1bb9ccfb6c7c789290e97fd7fcfb5ce96bda1b2e5722dad24534b"
			if genesis.Hash != exp {
				t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, genesis.Hash)
				t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, exp)
				t.Fatalf("\t%s\tTest %d:\tShould produce the expected genesis hash.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould produce the expected genesis hash.", success, testID)

			next := database.NewBlock(bc.LatestBlock(), []string{"tx"}, genesis.MiningResult, timestamp+1)
			bc.AddBlock(next)

			if bc.Height() != 1 || bc.Len() != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould have a height of 1: %d", failed, testID, bc.Height())
			}
			t.Logf("\t%s\tTest %d:\tShould have a height of 1.", success, testID)

			if next.PrevHash != genesis.Hash || next.Index != 1 || !next.IsSealed() {
				t.Fatalf("\t%s\tTest %d:\tShould link the successor to genesis.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould link the successor to genesis.", success, testID)

			got, err := bc.Block(1)
			if err != nil || got.Hash != next.Hash {
				t.Fatalf("\t%s\tTest %d:\tShould retrieve the block by index: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould retrieve the block by index.", success, testID)

			if _, err := bc.Block(2); !errors.Is(err, database.ErrNotFound) {
				t.Fatalf("\t%s\tTest %d:\tShould not find a block past the end: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould not find a block past the end.", success, testID)

			blocks := bc.Blocks()
			blocks[0].Hash = "mutated"
			if bc.Genesis().Hash == "mutated" {
				t.Fatalf("\t%s\tTest %d:\tShould return a copy of the blocks.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould return a copy of the blocks.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen genesis can't be mined within the depth limit.", testID)
		{
			_, err := database.NewBlockchain(context.Background(), database.GenesisConfig{
				Threshold: decimal.RequireFromString("0.000001"),
				MaxDepth:  3,
			})
			if !errors.Is(err, mining.ErrExhausted) {
				t.Fatalf("\t%s\tTest %d:\tShould fail with an exhausted search: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould fail with an exhausted search.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen loading a chain from storage.", testID)
		{
			if _, err := database.LoadBlockchain(nil); !errors.Is(err, database.ErrEmptyChain) {
				t.Fatalf("\t%s\tTest %d:\tShould reject an empty chain: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject an empty chain.", success, testID)

			genesis := database.Block{Timestamp: timestamp, PrevHash: database.RootHash}
			genesis.Seal()

			bc, err := database.LoadBlockchain([]database.Block{genesis})
			if err != nil || bc.LatestBlock().Hash != genesis.Hash {
				t.Fatalf("\t%s\tTest %d:\tShould load the blocks: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould load the blocks.", success, testID)
		}
	}
}

func Test_ReadAll(t *testing.T) {
	failure := errors.New("disk read failure")

	t.Log("Given the need to read every stored block.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the iterator fails on its last step.", testID)
		{
			s := failingSerializer{blocks: 2, err: failure}

			blocks, err := database.ReadAll(&s)
			if !errors.Is(err, failure) {
				t.Fatalf("\t%s\tTest %d:\tShould return the storage error: %v", failed, testID, err)
			}
			if blocks != nil {
				t.Fatalf("\t%s\tTest %d:\tShould not return a partial chain: %d", failed, testID, len(blocks))
			}
			t.Logf("\t%s\tTest %d:\tShould return the storage error.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the iterator reaches the end of the chain.", testID)
		{
			s := failingSerializer{blocks: 2, err: database.ErrEndOfChain}

			blocks, err := database.ReadAll(&s)
			if err != nil || len(blocks) != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould read both blocks: %d %v", failed, testID, len(blocks), err)
			}
			t.Logf("\t%s\tTest %d:\tShould read both blocks.", success, testID)
		}
	}
}

// failingSerializer yields a number of blocks and then ends the walk with
// the configured error, marking the iterator done at the same time.
type failingSerializer struct {
	blocks int
	err    error
}

func (s *failingSerializer) Write(database.Block) error { return nil }
func (s *failingSerializer) Close() error               { return nil }
func (s *failingSerializer) Reset() error               { return nil }

func (s *failingSerializer) GetBlock(index uint64) (database.Block, error) {
	return database.Block{Index: index}, nil
}

func (s *failingSerializer) ForEach() database.Iterator {
	return &failingIterator{s: s}
}

type failingIterator struct {
	s       *failingSerializer
	current int
	eoc     bool
}

func (fi *failingIterator) Next() (database.Block, error) {
	if fi.current == fi.s.blocks {
		fi.eoc = true
		return database.Block{}, fi.s.err
	}
	fi.current++
	return database.Block{Index: uint64(fi.current - 1)}, nil
}

func (fi *failingIterator) Done() bool {
	return fi.eoc
}
