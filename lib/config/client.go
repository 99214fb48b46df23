package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-i2p/logger"
	"github.com/spf13/viper"
)

var (
	// CfgFile is the config file path set by the -config flag; empty means
	// the default location under the user's home directory.
	CfgFile string

	log = logger.GetGoI2PLogger()
)

const baseDirName = ".go-ssh2"

// ClientConfig is everything the demo client needs to open a connection.
type ClientConfig struct {
	Host           string
	Port           int
	ConnectTimeout time.Duration
	IPVersion      IPVersion
	WishList       *CryptoWishList
	DHGex          *DHGexParameters
}

// InitConfig wires up viper: config file selection, defaults, and reading
// the file if one exists. Missing files are not an error for the client; the
// defaults stand.
func InitConfig() {
	if CfgFile != "" {
		viper.SetConfigFile(CfgFile)
	} else {
		viper.AddConfigPath(buildConfigDirPath())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if CfgFile != "" {
				log.Fatalf("config file %s is not found: %s", CfgFile, err)
			}
			log.Debug("no config file found, using defaults")
		} else {
			log.Fatalf("error reading config file: %s", err)
		}
	} else {
		log.WithField("config_file", viper.ConfigFileUsed()).Debug("using config file")
	}
}

func setDefaults() {
	viper.SetDefault("client.port", 22)
	viper.SetDefault("client.connect_timeout_ms", 10000)
	viper.SetDefault("client.ip_version", "any")

	wl := DefaultCryptoWishList()
	viper.SetDefault("crypto.kex", wl.KexAlgorithms)
	viper.SetDefault("crypto.hostkeys", wl.ServerHostKeyAlgos)
	viper.SetDefault("crypto.ciphers", wl.Ciphers)
	viper.SetDefault("crypto.macs", wl.MACs)
	viper.SetDefault("crypto.compression", wl.CompressionMethods)

	gex := DefaultDHGexParameters()
	viper.SetDefault("crypto.dhgex.min", gex.MinGroupLength)
	viper.SetDefault("crypto.dhgex.preferred", gex.PreferredGroupLength)
	viper.SetDefault("crypto.dhgex.max", gex.MaxGroupLength)
}

// NewClientConfigFromViper builds a ClientConfig from the current viper
// settings. Flag values override the file by being bound before this call.
func NewClientConfigFromViper() *ClientConfig {
	ipv, err := ParseIPVersion(viper.GetString("client.ip_version"))
	if err != nil {
		log.WithError(err).Warn("invalid ip_version in config, using default")
	}

	return &ClientConfig{
		Host:           viper.GetString("client.host"),
		Port:           viper.GetInt("client.port"),
		ConnectTimeout: time.Duration(viper.GetInt("client.connect_timeout_ms")) * time.Millisecond,
		IPVersion:      ipv,
		WishList: &CryptoWishList{
			KexAlgorithms:      viper.GetStringSlice("crypto.kex"),
			ServerHostKeyAlgos: viper.GetStringSlice("crypto.hostkeys"),
			Ciphers:            viper.GetStringSlice("crypto.ciphers"),
			MACs:               viper.GetStringSlice("crypto.macs"),
			CompressionMethods: viper.GetStringSlice("crypto.compression"),
		},
		DHGex: &DHGexParameters{
			MinGroupLength:       viper.GetInt("crypto.dhgex.min"),
			PreferredGroupLength: viper.GetInt("crypto.dhgex.preferred"),
			MaxGroupLength:       viper.GetInt("crypto.dhgex.max"),
		},
	}
}

func buildConfigDirPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return baseDirName
	}
	return filepath.Join(home, baseDirName)
}
