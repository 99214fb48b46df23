package sshcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"

	"github.com/samber/oops"
	"golang.org/x/crypto/blowfish"
)

var (
	ErrUnknownCipher = oops.New("unknown cipher algorithm")
	ErrKeySize       = oops.New("cipher key or IV has wrong size")
)

// BlockCipher transforms packet data in one direction. A cipher constructed
// with encrypt=true may only encrypt, one with encrypt=false may only
// decrypt. Input length must be a multiple of BlockSize for CBC modes; CTR
// mode accepts any length but the codec always feeds whole blocks.
type BlockCipher interface {
	// BlockSize returns the cipher block size in bytes. The codec pads
	// packets to a multiple of max(BlockSize, 8).
	BlockSize() int

	// Transform encrypts or decrypts src into dst. dst and src may overlap
	// completely (in-place operation).
	Transform(dst, src []byte)
}

// cipherSpec describes one algorithm name: key and IV sizes plus a
// constructor for the underlying block primitive.
type cipherSpec struct {
	keySize   int
	blockSize int
	ctr       bool
	newBlock  func(key []byte) (cipher.Block, error)
}

var cipherSpecs = map[string]cipherSpec{
	"aes128-ctr":   {16, aes.BlockSize, true, aes.NewCipher},
	"aes192-ctr":   {24, aes.BlockSize, true, aes.NewCipher},
	"aes256-ctr":   {32, aes.BlockSize, true, aes.NewCipher},
	"aes128-cbc":   {16, aes.BlockSize, false, aes.NewCipher},
	"aes192-cbc":   {24, aes.BlockSize, false, aes.NewCipher},
	"aes256-cbc":   {32, aes.BlockSize, false, aes.NewCipher},
	"blowfish-cbc": {16, blowfish.BlockSize, false, newBlowfish},
	"3des-cbc":     {24, 8, false, des.NewTripleDESCipher},
}

func newBlowfish(key []byte) (cipher.Block, error) {
	return blowfish.NewCipher(key)
}

// CipherNames returns the algorithm names this package can construct.
func CipherNames() []string {
	names := make([]string, 0, len(cipherSpecs))
	for name := range cipherSpecs {
		names = append(names, name)
	}
	return names
}

// KeySize returns the key size in bytes for the named cipher.
func KeySize(name string) (int, error) {
	spec, ok := cipherSpecs[name]
	if !ok {
		return 0, oops.Wrapf(ErrUnknownCipher, "%s", name)
	}
	return spec.keySize, nil
}

// BlockSizeOf returns the block size in bytes for the named cipher.
func BlockSizeOf(name string) (int, error) {
	spec, ok := cipherSpecs[name]
	if !ok {
		return 0, oops.Wrapf(ErrUnknownCipher, "%s", name)
	}
	return spec.blockSize, nil
}

// NewBlockCipher constructs the named cipher for one direction. encrypt
// selects the send side; the decrypt side of CBC uses a separate block mode.
func NewBlockCipher(name string, key, iv []byte, encrypt bool) (BlockCipher, error) {
	spec, ok := cipherSpecs[name]
	if !ok {
		return nil, oops.Wrapf(ErrUnknownCipher, "%s", name)
	}
	if len(key) != spec.keySize || len(iv) != spec.blockSize {
		return nil, oops.Wrapf(ErrKeySize, "%s: key %d iv %d", name, len(key), len(iv))
	}
	block, err := spec.newBlock(key)
	if err != nil {
		return nil, oops.Wrapf(err, "constructing %s", name)
	}
	if spec.ctr {
		return &streamCipher{stream: cipher.NewCTR(block, iv), blockSize: spec.blockSize}, nil
	}
	var mode cipher.BlockMode
	if encrypt {
		mode = cipher.NewCBCEncrypter(block, iv)
	} else {
		mode = cipher.NewCBCDecrypter(block, iv)
	}
	return &blockModeCipher{mode: mode, blockSize: spec.blockSize}, nil
}

type streamCipher struct {
	stream    cipher.Stream
	blockSize int
}

func (c *streamCipher) BlockSize() int {
	return c.blockSize
}

func (c *streamCipher) Transform(dst, src []byte) {
	c.stream.XORKeyStream(dst, src)
}

type blockModeCipher struct {
	mode      cipher.BlockMode
	blockSize int
}

func (c *blockModeCipher) BlockSize() int {
	return c.blockSize
}

func (c *blockModeCipher) Transform(dst, src []byte) {
	c.mode.CryptBlocks(dst, src)
}
