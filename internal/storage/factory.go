package storage

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"heliomovie/internal/adapters/storage/gdrive"
	"heliomovie/internal/adapters/storage/localfs"
	"heliomovie/internal/pkg/config"
)

// NewProvider builds the storage provider selected by STORAGE_PROVIDER.
// Movies end up either on the local filesystem or in a Drive folder.
func NewProvider() (Provider, error) {
	provider := config.Env("STORAGE_PROVIDER", "localfs")

	switch provider {
	case "localfs":
		root := config.Env("STORAGE_LOCAL_ROOT", ".")
		return localfs.New(root), nil

	case "gdrive":
		return newGDriveProvider()

	default:
		return nil, fmt.Errorf("unknown storage provider: %s", provider)
	}
}

func newGDriveProvider() (Provider, error) {
	ctx := context.Background()

	clientID := config.MustEnv("GDRIVE_CLIENT_ID")
	clientSecret := config.MustEnv("GDRIVE_CLIENT_SECRET")
	refreshToken := config.MustEnv("GDRIVE_REFRESH_TOKEN")
	folderID := config.Env("GDRIVE_FOLDER_ID", "")

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveFileScope},
	}

	tok := &oauth2.Token{RefreshToken: refreshToken}
	httpClient := conf.Client(ctx, tok)

	srv, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}

	return gdrive.NewClient(srv, folderID), nil
}
