package src

import (
	"fmt"

	"tvgate/src/internal/imgcache"
)

// imgCache : Local copies of channel logos, served under /images/
var imgCache *imgcache.Cache

// createImageCache : Bind the logo cache to the current base URL
func createImageCache() (err error) {
	imgCache, err = imgcache.New(System.Folder.ImagesCache, fmt.Sprintf("%s://%s/images/", System.ServerProtocol.WEB, System.Domain), Settings.CacheImages, NewHTTPClient())
	return
}

// cacheChannelLogos : Download all channel logos in the background and drop the
// copies no channel references anymore
func cacheChannelLogos() {
	if imgCache == nil || !Settings.CacheImages || System.ImageCachingInProgress == 1 {
		return
	}

	go func() {
		System.ImageCachingInProgress = 1

		queueChannelLogos()
		showInfo(fmt.Sprintf("Image Caching:Images are cached (%d)", len(imgCache.Queue)))

		imgCache.Image.Caching()
		imgCache.Image.Remove()
		showInfo("Image Caching:Done")

		System.ImageCachingInProgress = 0
	}()
}

// queueChannelLogos : Hand all channel logos to the image cache, sources already
// known to the cache are skipped by it
func queueChannelLogos() {
	if imgCache == nil {
		return
	}

	for _, channel := range engine.Channels() {
		if len(channel.Logo) > 0 {
			imgCache.Image.GetURL(channel.Logo)
		}
	}
}
