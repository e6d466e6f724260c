// ABOUTME: mDNS service discovery for the viewer's remote control endpoint
// ABOUTME: Advertises a running viewer and lets control clients find one
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service type of a viewer's control endpoint
const ServiceType = "_waveview._tcp"

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int
	Path        string // control endpoint path advertised in TXT, default /control
}

// Manager handles mDNS operations
type Manager struct {
	config Config
	ctx    context.Context
	cancel context.CancelFunc
}

// ServiceInfo describes a discovered viewer
type ServiceInfo struct {
	Name string
	Host string
	Port int
	Path string
}

// Addr returns host:port
func (s ServiceInfo) Addr() string {
	return net.JoinHostPort(s.Host, fmt.Sprint(s.Port))
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	if config.Path == "" {
		config.Path = "/control"
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Advertise announces the control endpoint until Stop is called
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		txtRecords(m.config),
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	log.Printf("Advertising mDNS service: %s on port %d (type: %s)", m.config.ServiceName, m.config.Port, ServiceType)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse queries the network once and returns every viewer that answered within timeout
func Browse(ctx context.Context, timeout time.Duration) ([]ServiceInfo, error) {
	entries := make(chan *mdns.ServiceEntry, 16)
	done := make(chan []ServiceInfo, 1)

	go func() {
		var found []ServiceInfo
		for entry := range entries {
			if info, ok := serviceFromEntry(entry); ok {
				log.Printf("Discovered viewer: %s at %s", info.Name, info.Addr())
				found = append(found, info)
			}
		}
		done <- found
	}()

	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true

	errChan := make(chan error, 1)
	go func() {
		errChan <- mdns.Query(params)
		close(entries)
	}()

	select {
	case err := <-errChan:
		found := <-done
		if err != nil {
			return found, fmt.Errorf("mdns query failed: %w", err)
		}
		return found, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stop stops advertising
func (m *Manager) Stop() {
	m.cancel()
}

func txtRecords(config Config) []string {
	return []string{"path=" + config.Path}
}

// serviceFromEntry converts an mDNS answer, skipping other service types and entries without an IPv4 address
func serviceFromEntry(entry *mdns.ServiceEntry) (ServiceInfo, bool) {
	if entry == nil || entry.AddrV4 == nil || !strings.Contains(entry.Name, ServiceType) {
		return ServiceInfo{}, false
	}

	info := ServiceInfo{
		Name: strings.TrimSuffix(entry.Name, "."+ServiceType+".local."),
		Host: entry.AddrV4.String(),
		Port: entry.Port,
		Path: "/control",
	}
	for _, field := range entry.InfoFields {
		if path, ok := strings.CutPrefix(field, "path="); ok {
			info.Path = path
		}
	}
	return info, true
}

// getLocalIPs returns local IP addresses
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
