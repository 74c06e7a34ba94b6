package usecase

import (
	"net/http"
	"strings"
)

type ImageSourceKind int

const (
	ImageUploadedBytes ImageSourceKind = iota + 1
	ImageExternalURL
)

// ImageSource é a origem de uma imagem de branding: arquivo enviado ou URL externa.
// O handler decide qual é, e o caso de uso faz um único switch em Kind.
type ImageSource struct {
	Kind        ImageSourceKind
	Data        []byte
	ContentType string
	URL         string
}

func UploadedBytes(data []byte, contentType string) ImageSource {
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return ImageSource{Kind: ImageUploadedBytes, Data: data, ContentType: contentType}
}

func ExternalURL(url string) ImageSource {
	return ImageSource{Kind: ImageExternalURL, URL: url}
}

const assetRoot = "lead_funnel/"

// brandingFolder separa os arquivos por dono: lead_funnel/<owner>/Logo.
func brandingFolder(ownerID, field string) string {
	if field == "logo" {
		return assetRoot + ownerID + "/Logo"
	}
	return assetRoot + ownerID + "/BgImage"
}

// ownsAsset diz se o public id foi gerado dentro da pasta do dono.
func ownsAsset(ownerID, publicID string) bool {
	if ownerID == "" || strings.Contains(publicID, "..") {
		return false
	}
	return strings.HasPrefix(publicID, assetRoot+ownerID+"/")
}
