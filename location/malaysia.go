package location

// malaysia is the default lookup table. Order matters: it drives page
// enumeration and first-match slug resolution.
var malaysia = []Entry{
	{State: AllStates},
	{State: "Johor", Cities: []string{"Johor Bahru", "Batu Pahat", "Muar", "Kluang", "Segamat", "Pontian", "Kulai", "Kota Tinggi", "Skudai", "Pasir Gudang"}},
	{State: "Kedah", Cities: []string{"Alor Setar", "Sungai Petani", "Kulim", "Langkawi", "Jitra", "Baling"}},
	{State: "Kelantan", Cities: []string{"Kota Bharu", "Pasir Mas", "Tanah Merah", "Machang", "Kuala Krai", "Tumpat"}},
	{State: "Melaka", Cities: []string{"Melaka", "Alor Gajah", "Jasin", "Ayer Keroh"}},
	{State: "Negeri Sembilan", Cities: []string{"Seremban", "Port Dickson", "Nilai", "Rembau", "Kuala Pilah", "Tampin"}},
	{State: "Pahang", Cities: []string{"Kuantan", "Temerloh", "Bentong", "Raub", "Jerantut", "Pekan", "Kuala Lipis"}},
	{State: "Perak", Cities: []string{"Ipoh", "Taiping", "Teluk Intan", "Sitiawan", "Kuala Kangsar", "Lumut", "Kampar", "Batu Gajah"}},
	{State: "Perlis", Cities: []string{"Kangar", "Arau", "Padang Besar"}},
	{State: "Pulau Pinang", Cities: []string{"George Town", "Butterworth", "Bukit Mertajam", "Bayan Lepas", "Seberang Jaya", "Nibong Tebal"}},
	{State: "Sabah", Cities: []string{"Kota Kinabalu", "Sandakan", "Tawau", "Lahad Datu", "Keningau", "Semporna"}},
	{State: "Sarawak", Cities: []string{"Kuching", "Miri", "Sibu", "Bintulu", "Sri Aman", "Kapit"}},
	{State: "Selangor", Cities: []string{"Shah Alam", "Petaling Jaya", "Subang Jaya", "Klang", "Kajang", "Ampang", "Puchong", "Seri Kembangan", "Rawang", "Selayang", "Sepang", "Banting"}},
	{State: "Terengganu", Cities: []string{"Kuala Terengganu", "Kemaman", "Dungun", "Besut", "Marang"}},
	{State: FederalTerritories},
	{State: "Kuala Lumpur", Cities: []string{"Cheras", "Kepong", "Setapak", "Bangsar", "Wangsa Maju", "Bukit Bintang", "Sentul", "Titiwangsa"}},
	{State: "Putrajaya", Cities: []string{"Presint 1", "Presint 9", "Presint 11"}},
	{State: "Labuan", Cities: []string{"Victoria"}},
}

// DefaultTable returns the built-in table of Malaysian states, federal
// territories and cities.
func DefaultTable() *Table {
	return NewTable(malaysia)
}
