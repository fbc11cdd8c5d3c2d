package i18n

var catalog = map[string]map[Key]string{
	"en": {
		KeyWelcome: "👋 Welcome! Send me a YouTube URL to get started.\n\n⚠️ Use for personal, legal content only. Respect copyright.",
		KeyHelp: "🎬 How to use:\n" +
			"1. Send a YouTube URL\n" +
			"2. Choose format (video/audio)\n" +
			"3. Select quality\n" +
			"4. Pick delivery and receive your file\n\n" +
			"Commands:\n" +
			"/start – start over\n" +
			"/help – this help\n" +
			"/status – your download stats\n" +
			"/settings – change language\n" +
			"/connect – link cloud storage\n\n" +
			"Limits: {limit} downloads per day, {max_mb}MB direct upload.",
		KeyStatus: "📊 Your statistics\n\n" +
			"Total downloads: {total}\n" +
			"Today: {today}\n" +
			"Remaining today: {remaining}\n" +
			"Member since: {joined}",
		KeyInvalidURL:      "❌ Invalid YouTube URL. Please send a valid link.",
		KeyRateLimited:     "⚠️ You've reached your daily limit of {limit} downloads. Try again tomorrow!",
		KeySelectFormat:    "📁 Select format:",
		KeySelectQuality:   "🎚️ Select quality:",
		KeyDownloading:     "⬇ Downloading... {progress}%",
		KeyUploading:       "⏫ Uploading... {progress}%",
		KeySelectDelivery:  "📦 File ready ({size_mb}MB). How should I deliver it?",
		KeyCompleted:       "✅ Download completed!",
		KeyFailed:          "❌ Download failed: {error}",
		KeyCloudLink:       "☁️ Your file is ready!\n\n🔗 Link: {url}\n\n⏱️ Valid for 7 days",
		KeyCloudNotLinked:  "☁️ Cloud storage is not connected. Use /connect first.",
		KeyCloudLinked:     "✅ Cloud storage connected.",
		KeyConnectHelp:     "☁️ To link cloud storage, authorize with your provider and send the token here:\n/connect <token>",
		KeySelectLanguage:  "🌐 Select language / ভাষা নির্বাচন করুন:",
		KeyLanguageUpdated: "✅ Language updated!",
		KeySessionExpired:  "Session expired or superseded. Send a URL to start again.",
		KeyAdminStats:      "👑 Admin\n\nUsers: {users}\nJobs: {jobs}\nCompleted: {completed}\nFailed: {failed}",
		KeyNotAdmin:        "This command is restricted.",
	},
	"bn": {
		KeyWelcome: "👋 স্বাগতম! শুরু করতে আমাকে একটি YouTube URL পাঠান।\n\n⚠️ শুধুমাত্র ব্যক্তিগত, বৈধ কনটেন্টের জন্য ব্যবহার করুন। কপিরাইট সম্মান করুন।",
		KeyHelp: "🎬 কিভাবে ব্যবহার করবেন:\n" +
			"1. একটি YouTube URL পাঠান\n" +
			"2. ফরম্যাট নির্বাচন করুন (ভিডিও/অডিও)\n" +
			"3. কোয়ালিটি নির্বাচন করুন\n" +
			"4. ডেলিভারি বেছে নিন এবং আপনার ফাইল পান\n\n" +
			"কমান্ড:\n" +
			"/start – আবার শুরু করুন\n" +
			"/help – এই সাহায্য\n" +
			"/status – আপনার ডাউনলোড পরিসংখ্যান\n" +
			"/settings – ভাষা পরিবর্তন করুন\n" +
			"/connect – ক্লাউড স্টোরেজ সংযুক্ত করুন\n\n" +
			"সীমা: প্রতিদিন {limit}টি ডাউনলোড, সর্বোচ্চ {max_mb}MB সরাসরি আপলোড।",
		KeyStatus: "📊 আপনার পরিসংখ্যান\n\n" +
			"মোট ডাউনলোড: {total}\n" +
			"আজকের ডাউনলোড: {today}\n" +
			"আজ বাকি: {remaining}\n" +
			"সদস্য হওয়ার তারিখ: {joined}",
		KeyInvalidURL:      "❌ অবৈধ YouTube URL। অনুগ্রহ করে একটি বৈধ লিংক পাঠান।",
		KeyRateLimited:     "⚠️ আপনি আজকের {limit}টি ডাউনলোডের সীমা পূর্ণ করেছেন। আগামীকাল আবার চেষ্টা করুন!",
		KeySelectFormat:    "📁 ফরম্যাট নির্বাচন করুন:",
		KeySelectQuality:   "🎚️ কোয়ালিটি নির্বাচন করুন:",
		KeyDownloading:     "⬇ ডাউনলোড হচ্ছে... {progress}%",
		KeyUploading:       "⏫ আপলোড হচ্ছে... {progress}%",
		KeySelectDelivery:  "📦 ফাইল প্রস্তুত ({size_mb}MB)। কিভাবে ডেলিভারি করব?",
		KeyCompleted:       "✅ ডাউনলোড সম্পন্ন!",
		KeyFailed:          "❌ ডাউনলোড ব্যর্থ: {error}",
		KeyCloudLink:       "☁️ আপনার ফাইল প্রস্তুত!\n\n🔗 লিংক: {url}\n\n⏱️ ৭ দিনের জন্য বৈধ",
		KeyCloudNotLinked:  "☁️ ক্লাউড স্টোরেজ সংযুক্ত নেই। প্রথমে /connect ব্যবহার করুন।",
		KeyCloudLinked:     "✅ ক্লাউড স্টোরেজ সংযুক্ত হয়েছে।",
		KeyConnectHelp:     "☁️ ক্লাউড স্টোরেজ লিংক করতে, আপনার প্রোভাইডারে অনুমোদন করুন এবং টোকেনটি এখানে পাঠান:\n/connect <token>",
		KeySelectLanguage:  "🌐 Select language / ভাষা নির্বাচন করুন:",
		KeyLanguageUpdated: "✅ ভাষা আপডেট হয়েছে!",
		KeySessionExpired:  "সেশনের মেয়াদ শেষ। আবার শুরু করতে একটি URL পাঠান।",
		KeyAdminStats:      "👑 অ্যাডমিন\n\nব্যবহারকারী: {users}\nজব: {jobs}\nসম্পন্ন: {completed}\nব্যর্থ: {failed}",
		KeyNotAdmin:        "এই কমান্ডটি সীমাবদ্ধ।",
	},
}
