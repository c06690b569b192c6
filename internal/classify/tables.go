package classify

import "github.com/appdock/appdock/internal/catalog"

// exactIDs maps well-known bundle identifiers to their category.
// Lookups are case-sensitive.
var exactIDs = map[string]catalog.Category{
	// Developer Tools Apple
	"com.apple.dt.Xcode":      catalog.DeveloperTools,
	"com.apple.Terminal":      catalog.DeveloperTools,
	"com.apple.ScriptEditor2": catalog.DeveloperTools,
	"com.apple.Automator":     catalog.DeveloperTools,

	// Developer Tools Third Party
	"com.microsoft.VSCode":                  catalog.DeveloperTools,
	"com.visualstudio.code":                 catalog.DeveloperTools,
	"com.cursor.Cursor":                     catalog.DeveloperTools,
	"com.github.atom":                       catalog.DeveloperTools,
	"com.panic.Nova":                        catalog.DeveloperTools,
	"com.barebones.bbedit":                  catalog.DeveloperTools,
	"com.macromates.TextMate":               catalog.DeveloperTools,
	"com.googlecode.iterm2":                 catalog.DeveloperTools,
	"dev.warp.Warp-Stable":                  catalog.DeveloperTools,
	"dev.warp.Warp":                         catalog.DeveloperTools,
	"co.zeit.hyper":                         catalog.DeveloperTools,
	"org.alacritty":                         catalog.DeveloperTools,
	"com.docker.docker":                     catalog.DeveloperTools,
	"com.tinyapp.TablePlus":                 catalog.DeveloperTools,
	"com.sequel-pro.sequel-pro":             catalog.DeveloperTools,
	"com.postmanlabs.mac":                   catalog.DeveloperTools,
	"com.insomnia.app":                      catalog.DeveloperTools,
	"net.sourceforge.sqlitebrowser":         catalog.DeveloperTools,
	"com.todesktop.230313mzl4w4u92":         catalog.DeveloperTools,
	"com.github.GitHubClient":               catalog.DeveloperTools,
	"com.tower.mac":                         catalog.DeveloperTools,
	"com.git-tower.Tower3":                  catalog.DeveloperTools,
	"org.sourcetreeapp.SourceTree":          catalog.DeveloperTools,
	"com.noodlesoft.Hazel":                  catalog.DeveloperTools,
	"abnerworks.Typora":                     catalog.DeveloperTools,
	"com.swiftformat.SwiftFormat-for-Xcode": catalog.DeveloperTools,

	// Browsers & Internet
	"com.google.Chrome":                 catalog.Internet,
	"com.google.Chrome.canary":          catalog.Internet,
	"org.mozilla.firefox":               catalog.Internet,
	"org.mozilla.nightly":               catalog.Internet,
	"com.apple.Safari":                  catalog.Internet,
	"com.apple.SafariTechnologyPreview": catalog.Internet,
	"com.operasoftware.Opera":           catalog.Internet,
	"com.brave.Browser":                 catalog.Internet,
	"com.vivaldi.Vivaldi":               catalog.Internet,
	"org.chromium.Chromium":             catalog.Internet,
	"company.thebrowser.Browser":        catalog.Internet,
	"com.sigmaos.sigmaos.macos":         catalog.Internet,
	"com.microsoft.edgemac":             catalog.Internet,
	"org.torproject.torbrowser":         catalog.Internet,
	"com.nickvision.Parabolic":          catalog.Internet,

	// Communication
	"com.tinyspeck.slackmacgap":         catalog.Communication,
	"com.microsoft.teams":               catalog.Communication,
	"com.microsoft.teams2":              catalog.Communication,
	"us.zoom.xos":                       catalog.Communication,
	"org.whispersystems.signal-desktop": catalog.Communication,
	"com.hnc.Discord":                   catalog.Communication,
	"ru.keepcoder.Telegram":             catalog.Communication,
	"com.skype.skype":                   catalog.Communication,
	"com.apple.MobileSMS":               catalog.Communication,
	"com.apple.FaceTime":                catalog.Communication,
	"com.apple.mail":                    catalog.Communication,
	"com.apple.AddressBook":             catalog.Communication,
	"com.apple.Contacts":                catalog.Communication,
	"com.readdle.smartemail-macos":      catalog.Communication,
	"com.microsoft.Outlook":             catalog.Communication,
	"com.freron.MailMate":               catalog.Communication,
	"com.mimestream.Mimestream":         catalog.Communication,
	"com.superhuman.mail":               catalog.Communication,
	"com.facebook.archon.developerID":   catalog.Communication,
	"com.viber.osx":                     catalog.Communication,
	"jp.naver.line.mac":                 catalog.Communication,
	"com.linphone.linphone":             catalog.Communication,

	// Media & Entertainment
	"com.spotify.client":         catalog.Entertainment,
	"com.apple.Music":            catalog.Entertainment,
	"com.apple.TV":               catalog.Entertainment,
	"com.apple.iMovieApp":        catalog.Entertainment,
	"com.apple.Photos":           catalog.Entertainment,
	"com.apple.podcasts":         catalog.Entertainment,
	"com.apple.QuickTimePlayerX": catalog.Entertainment,
	"com.apple.Image-Capture":    catalog.Entertainment,
	"com.apple.VoiceMemos":       catalog.Entertainment,
	"com.plexapp.plexmedia":      catalog.Entertainment,
	"io.plex.plex-media-player":  catalog.Entertainment,
	"com.colliderli.iina":        catalog.Entertainment,
	"org.videolan.vlc":           catalog.Entertainment,
	"com.netflix":                catalog.Entertainment,
	"com.audacityteam.audacity":  catalog.Entertainment,
	"com.amazon.aiv.AIVApp":      catalog.Entertainment,
	"com.disneyplus.disneyplus":  catalog.Entertainment,
	"com.app.hbogo":              catalog.Entertainment,
	"com.apple.PhotoBooth":       catalog.Entertainment,
	"com.apple.Preview":          catalog.Entertainment,
	"com.handbrake.HandBrake":    catalog.Entertainment,
	"org.bongo.bandcamp":         catalog.Entertainment,
	"com.roon.Roon":              catalog.Entertainment,
	"com.deezer.deezer-desktop":  catalog.Entertainment,
	"com.tidal.desktop":          catalog.Entertainment,

	// Productivity
	"com.microsoft.Word":             catalog.Productivity,
	"com.microsoft.Excel":            catalog.Productivity,
	"com.microsoft.Powerpoint":       catalog.Productivity,
	"com.microsoft.onenote.mac":      catalog.Productivity,
	"com.apple.iWork.Pages":          catalog.Productivity,
	"com.apple.iWork.Numbers":        catalog.Productivity,
	"com.apple.iWork.Keynote":        catalog.Productivity,
	"com.apple.Notes":                catalog.Productivity,
	"com.apple.reminders":            catalog.Productivity,
	"com.apple.iCal":                 catalog.Productivity,
	"com.apple.Calendar":             catalog.Productivity,
	"com.apple.Stickies":             catalog.Productivity,
	"com.apple.shortcuts":            catalog.Productivity,
	"com.todoist.mac.Todoist":        catalog.Productivity,
	"com.culturedcode.ThingsMac":     catalog.Productivity,
	"md.obsidian":                    catalog.Productivity,
	"com.notion.id":                  catalog.Productivity,
	"com.electron.logseq":            catalog.Productivity,
	"com.lukilabs.lukiapp":           catalog.Productivity,
	"com.flexibits.fantastical2.mac": catalog.Productivity,
	"com.flexibits.cardhop.mac":      catalog.Productivity,
	"com.omnigroup.OmniFocus3":       catalog.Productivity,
	"com.omnigroup.OmniGraffle7":     catalog.Productivity,
	"com.omnigroup.OmniOutliner5":    catalog.Productivity,
	"com.omnigroup.OmniPlan4":        catalog.Productivity,
	"net.shinyfrog.bear":             catalog.Productivity,
	"com.craft.craft":                catalog.Productivity,
	"com.agiletortoise.Drafts-OSX":   catalog.Productivity,
	"com.apple.Freeform":             catalog.Productivity,

	// Creativity & Design
	"com.adobe.Photoshop":                  catalog.CreativityDesign,
	"com.adobe.Illustrator":                catalog.CreativityDesign,
	"com.adobe.InDesign":                   catalog.CreativityDesign,
	"com.adobe.Premiere":                   catalog.CreativityDesign,
	"com.adobe.AfterEffects":               catalog.CreativityDesign,
	"com.adobe.Lightroom":                  catalog.CreativityDesign,
	"com.adobe.LightroomClassicCC7":        catalog.CreativityDesign,
	"com.adobe.AdobeMediaEncoder":          catalog.CreativityDesign,
	"com.adobe.Animate":                    catalog.CreativityDesign,
	"com.adobe.Dreamweaver":                catalog.CreativityDesign,
	"com.adobe.XD":                         catalog.CreativityDesign,
	"com.bohemiancoding.sketch3":           catalog.CreativityDesign,
	"com.figma.Desktop":                    catalog.CreativityDesign,
	"com.canva.CanvaDesktop":               catalog.CreativityDesign,
	"com.pixelmatorteam.pixelmator.x":      catalog.CreativityDesign,
	"com.apple.garageband10":               catalog.CreativityDesign,
	"com.apple.LogicPro":                   catalog.CreativityDesign,
	"com.apple.FinalCut":                   catalog.CreativityDesign,
	"com.apple.compressor":                 catalog.CreativityDesign,
	"com.apple.motion":                     catalog.CreativityDesign,
	"com.apple.MainStage":                  catalog.CreativityDesign,
	"com.blender.blender":                  catalog.CreativityDesign,
	"com.affinity.designer2":               catalog.CreativityDesign,
	"com.affinity.photo2":                  catalog.CreativityDesign,
	"com.affinity.publisher2":              catalog.CreativityDesign,
	"com.affinity.designer":                catalog.CreativityDesign,
	"com.affinity.photo":                   catalog.CreativityDesign,
	"com.affinity.publisher":               catalog.CreativityDesign,
	"com.procreate.Procreate":              catalog.CreativityDesign,
	"com.corel.coreldraw":                  catalog.CreativityDesign,
	"com.davinci.resolve":                  catalog.CreativityDesign,
	"com.blackmagic-design.DaVinciResolve": catalog.CreativityDesign,
	"com.zbrush.zbrush":                    catalog.CreativityDesign,

	// Utilities
	"com.apple.calculator":               catalog.Utilities,
	"com.apple.ActivityMonitor":          catalog.Utilities,
	"com.apple.DiskUtility":              catalog.Utilities,
	"com.apple.ScreenCapture":            catalog.Utilities,
	"com.apple.TextEdit":                 catalog.Utilities,
	"com.apple.ColorSyncUtility":         catalog.Utilities,
	"com.apple.DigitalColorMeter":        catalog.Utilities,
	"com.apple.KeychainAccess":           catalog.Utilities,
	"com.apple.FontBook":                 catalog.Utilities,
	"com.apple.Maps":                     catalog.Utilities,
	"com.apple.Weather":                  catalog.Utilities,
	"com.apple.Home":                     catalog.Utilities,
	"com.apple.findmy":                   catalog.Utilities,
	"com.apple.ScreenSaver.Engine":       catalog.Utilities,
	"com.apple.ScreenSharing":            catalog.Utilities,
	"com.apple.airport.airportutility":   catalog.Utilities,
	"com.apple.Grapher":                  catalog.Utilities,
	"com.apple.BluetoothFileExchange":    catalog.Utilities,
	"com.apple.print.PrinterProxy":       catalog.Utilities,
	"com.apple.DirectoryUtility":         catalog.Utilities,
	"com.apple.Console":                  catalog.Utilities,
	"com.apple.SystemProfiler":           catalog.Utilities,
	"com.apple.audio.AudioMIDISetup":     catalog.Utilities,
	"com.apple.Clock":                    catalog.Utilities,
	"com.1password":                      catalog.Utilities,
	"com.1password.1password":            catalog.Utilities,
	"com.agilebits.onepassword7":         catalog.Utilities,
	"com.bitwarden.desktop":              catalog.Utilities,
	"com.nordvpn.macos":                  catalog.Utilities,
	"com.expressvpn.ExpressVPN":          catalog.Utilities,
	"com.objective-see.lulu":             catalog.Utilities,
	"com.macpaw.CleanMyMac4":             catalog.Utilities,
	"com.macpaw.CleanMyMac-setapp":       catalog.Utilities,
	"org.p0deje.Maccy":                   catalog.Utilities,
	"com.raycast.macos":                  catalog.Utilities,
	"com.alfredapp.Alfred":               catalog.Utilities,
	"com.eltima.cmd1-setapp":             catalog.Utilities,
	"com.pilotmoon.popclip":              catalog.Utilities,
	"com.bartender.Bartender":            catalog.Utilities,
	"com.apphousekitchen.aldente-pro":    catalog.Utilities,
	"me.guillaumeb.MonitorControl":       catalog.Utilities,
	"com.surteesstudios.Bartender":       catalog.Utilities,
	"com.lwouis.alt-tab-macos":           catalog.Utilities,
	"com.hegenberg.BetterTouchTool":      catalog.Utilities,
	"com.manytricks.Moom":                catalog.Utilities,
	"com.crystalidea.macsfancontrol":     catalog.Utilities,
	"at.obdev.LittleSnitchConfiguration": catalog.Utilities,
	"com.nssurge.surge-mac":              catalog.Utilities,
	"com.sparklabs.Viscosity":            catalog.Utilities,
	"com.apple.AppStore":                 catalog.Utilities,

	// System
	"com.apple.systempreferences": catalog.System,
	"com.apple.SystemPreferences": catalog.System,
	"com.apple.Accessibility":     catalog.System,
	"com.apple.MigrateAssistant":  catalog.System,
	"com.apple.bootcampassistant": catalog.System,
	"com.apple.SoftwareUpdate":    catalog.System,
	"com.apple.installer":         catalog.System,

	// Finance
	"com.copperkit.Cashculator-Mac": catalog.Finance,
	"com.apple.stocks":              catalog.Finance,

	// Education
	"com.apple.iBooks":     catalog.Education,
	"com.apple.Dictionary": catalog.Education,

	// Games
	"com.apple.Chess": catalog.Games,
}

type prefixRule struct {
	prefix   string
	category catalog.Category
}

// idPrefixes is matched against the lowercased identifier in order.
// Vendor entries are kept narrow (com.microsoft.word, not com.microsoft.).
var idPrefixes = []prefixRule{
	{"com.apple.dt.", catalog.DeveloperTools},
	{"com.jetbrains.", catalog.DeveloperTools},
	{"com.sublimetext.", catalog.DeveloperTools},
	{"com.sublimehq.", catalog.DeveloperTools},

	{"com.adobe.", catalog.CreativityDesign},

	{"com.microsoft.word", catalog.Productivity},
	{"com.microsoft.excel", catalog.Productivity},
	{"com.microsoft.powerpoint", catalog.Productivity},

	{"com.google.chrome", catalog.Internet},
	{"org.mozilla.", catalog.Internet},

	{"com.microsoft.teams", catalog.Communication},
	{"com.microsoft.outlook", catalog.Communication},
}

// vendorPrefix marks first-party OS apps that no other layer recognised.
const vendorPrefix = "com.apple."

type keywordRule struct {
	keyword  string
	category catalog.Category
}

// nameKeywords is checked in order against whole lowercase name tokens.
var nameKeywords = []keywordRule{
	{"xcode", catalog.DeveloperTools},
	{"terminal", catalog.DeveloperTools},
	{"compiler", catalog.DeveloperTools},
	{"debugger", catalog.DeveloperTools},

	{"safari", catalog.Internet},
	{"chrome", catalog.Internet},
	{"firefox", catalog.Internet},
	{"browser", catalog.Internet},

	{"mail", catalog.Communication},
	{"chat", catalog.Communication},
	{"messenger", catalog.Communication},
	{"slack", catalog.Communication},

	{"music", catalog.Entertainment},
	{"podcast", catalog.Entertainment},
	{"radio", catalog.Entertainment},

	{"design", catalog.CreativityDesign},
	{"sketch", catalog.CreativityDesign},
	{"paint", catalog.CreativityDesign},
	{"illustrator", catalog.CreativityDesign},

	{"game", catalog.Games},
	{"chess", catalog.Games},
	{"arcade", catalog.Games},
	{"solitaire", catalog.Games},
	{"sudoku", catalog.Games},

	{"vpn", catalog.Utilities},
	{"calculator", catalog.Utilities},
	{"clipboard", catalog.Utilities},
	{"password", catalog.Utilities},
	{"unarchiver", catalog.Utilities},

	{"classroom", catalog.Education},

	{"finance", catalog.Finance},
	{"banking", catalog.Finance},
	{"budget", catalog.Finance},
	{"accounting", catalog.Finance},
	{"invoice", catalog.Finance},
}
