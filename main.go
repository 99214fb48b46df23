package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/go-i2p/logger"

	"github.com/go-i2p/go-ssh2/lib/config"
	"github.com/go-i2p/go-ssh2/lib/sshwire"
	"github.com/go-i2p/go-ssh2/lib/transport"
	"github.com/go-i2p/go-ssh2/lib/util/signals"
)

var log = logger.GetGoI2PLogger()

// probeEngine is a KexEngine that never completes a key exchange: it
// observes the server's KEXINIT and reports the offered algorithms. Good
// enough to exercise the whole transport below the engine.
type probeEngine struct {
	mu    sync.Mutex
	done  chan struct{}
	offer *sshwire.KexInit
	err   error
}

func newProbeEngine() *probeEngine {
	return &probeEngine{done: make(chan struct{})}
}

func (p *probeEngine) Initiate(_ *config.CryptoWishList, _ *config.DHGexParameters) error {
	// Observer only: the server sends its KEXINIT unprompted.
	return nil
}

func (p *probeEngine) HandleMessage(payload []byte, length int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	select {
	case <-p.done:
		return nil
	default:
	}
	if payload == nil {
		p.err = fmt.Errorf("transport closed before server KEXINIT")
		close(p.done)
		return nil
	}
	if payload[0] != sshwire.MsgKexInit {
		return nil
	}
	offer, err := sshwire.ParseKexInit(payload, length)
	if err != nil {
		return err
	}
	p.offer = offer
	close(p.done)
	return nil
}

func (p *probeEngine) IsStrictKex() bool {
	// We never advertise the client token, so strict mode never engages.
	return false
}

func (p *probeEngine) SessionID() []byte {
	return nil
}

func (p *probeEngine) GetOrWaitForConnectionInfo(_ int) (*transport.ConnectionInfo, error) {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return &transport.ConnectionInfo{
		KexAlgorithm:           first(p.offer.KexAlgorithms),
		ServerHostKeyAlgorithm: first(p.offer.ServerHostKeyAlgos),
		ClientToServerCipher:   first(p.offer.CiphersClientToServer),
		ServerToClientCipher:   first(p.offer.CiphersServerToClient),
		ClientToServerMAC:      first(p.offer.MACsClientToServer),
		ServerToClientMAC:      first(p.offer.MACsServerToClient),
		KexCount:               1,
	}, nil
}

func (p *probeEngine) serverOffer() *sshwire.KexInit {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.offer
}

func first(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

func main() {
	host := flag.String("host", "", "SSH server host to probe")
	port := flag.Int("port", 0, "SSH server port (default from config)")
	flag.StringVar(&config.CfgFile, "config", "", "path to config file")
	flag.Parse()

	config.InitConfig()
	cfg := config.NewClientConfigFromViper()
	if *host != "" {
		cfg.Host = *host
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if cfg.Host == "" {
		fmt.Fprintln(os.Stderr, "no host given: use -host or set client.host in the config file")
		os.Exit(2)
	}

	go signals.Handle()

	log.WithFields(logger.Fields{
		"host": cfg.Host,
		"port": cfg.Port,
	}).Debug("probing SSH server")

	t := transport.NewTransport(cfg.Host, cfg.Port)

	engine := newProbeEngine()
	factory := func(_ transport.KexTransport, _ *transport.ClientServerHello, _ string,
		_ int, _ transport.ServerHostKeyVerifier, _ io.Reader) transport.KexEngine {
		return engine
	}

	err := t.Initialize(cfg.WishList, nil, cfg.DHGex, cfg.ConnectTimeout, cfg.IPVersion, nil, nil, factory)
	if err != nil {
		log.WithError(err).Error("could not connect")
		os.Exit(1)
	}

	signals.RegisterInterruptHandler(func() {
		t.Close(nil, true)
		os.Exit(130)
	})

	if _, err := t.ConnectionInfo(1); err != nil {
		log.WithError(err).Error("no KEXINIT from server")
		t.Close(err, false)
		os.Exit(1)
	}

	offer := engine.serverOffer()
	fmt.Printf("server: %s:%d\n", cfg.Host, cfg.Port)
	fmt.Printf("kex:         %s\n", strings.Join(offer.KexAlgorithms, ", "))
	fmt.Printf("host keys:   %s\n", strings.Join(offer.ServerHostKeyAlgos, ", "))
	fmt.Printf("ciphers:     %s\n", strings.Join(offer.CiphersServerToClient, ", "))
	fmt.Printf("macs:        %s\n", strings.Join(offer.MACsServerToClient, ", "))
	fmt.Printf("compression: %s\n", strings.Join(offer.CompressionServerToClient, ", "))
	fmt.Printf("strict kex:  %v\n", offer.AdvertisesStrictKex(sshwire.StrictKexServerToken))

	t.Close(nil, true)
}
