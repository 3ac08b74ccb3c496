package backend

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/harmonia-app/harmonia/backend/mediaprovider"
	subsonicprovider "github.com/harmonia-app/harmonia/backend/mediaprovider/subsonic"
	"github.com/supersonic-app/go-subsonic/subsonic"
	"github.com/zalando/go-keyring"
)

var ErrNotLoggedIn = errors.New("not logged in to a server")

type ServerManager struct {
	ServerID uuid.UUID
	Server   mediaprovider.MediaProvider

	appName    string
	useKeyring bool

	onServerConnected []func()
	onLogout          []func()
}

func NewServerManager(appName string, useKeyring bool) *ServerManager {
	return &ServerManager{appName: appName, useKeyring: useKeyring}
}

func (s *ServerManager) ConnectToServer(conf *ServerConfig, password string) error {
	cli := &subsonic.Client{
		Client:     &http.Client{Timeout: 2 * time.Minute},
		BaseUrl:    NormalizeServerURL(conf.Hostname),
		User:       conf.Username,
		ClientName: s.appName,
	}
	if err := cli.Authenticate(password); err != nil {
		return err
	}
	s.Server = subsonicprovider.SubsonicMediaProvider(cli)
	s.ServerID = conf.ID
	if s.useKeyring {
		if err := s.SetServerPassword(conf, password); err != nil {
			// keyring unavailability should not block connecting
			s.useKeyring = false
		}
	}
	for _, cb := range s.onServerConnected {
		cb()
	}
	return nil
}

func (s *ServerManager) Logout(deletePassword bool) {
	if s.Server == nil {
		return
	}
	if deletePassword && s.useKeyring {
		keyring.Delete(s.appName, s.ServerID.String())
	}
	for _, cb := range s.onLogout {
		cb()
	}
	s.Server = nil
	s.ServerID = uuid.Nil
}

func (s *ServerManager) OnServerConnected(cb func()) {
	s.onServerConnected = append(s.onServerConnected, cb)
}

func (s *ServerManager) OnLogout(cb func()) {
	s.onLogout = append(s.onLogout, cb)
}

func (s *ServerManager) GetServerPassword(server *ServerConfig) (string, error) {
	if !s.useKeyring {
		return "", errors.New("keyring not enabled")
	}
	return keyring.Get(s.appName, server.ID.String())
}

func (s *ServerManager) SetServerPassword(server *ServerConfig, password string) error {
	if !s.useKeyring {
		return errors.New("keyring not enabled")
	}
	return keyring.Set(s.appName, server.ID.String(), password)
}
